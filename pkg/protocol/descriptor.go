package protocol

import (
    "errors"
    "fmt"
    "math"
    "time"

    "github.com/google/uuid"
    "google.golang.org/protobuf/encoding/protowire"

    "coesim/pkg/sim"
)

// Placement is the tier a task was dispatched to.
type Placement int8

const (
    PlacementUnassigned Placement = -1
    PlacementEdge       Placement = 0
    PlacementCloud      Placement = 1
    PlacementVehicle    Placement = 2
)

func (p Placement) String() string {
    switch p {
    case PlacementEdge:
        return "edge"
    case PlacementCloud:
        return "cloud"
    case PlacementVehicle:
        return "vehicle"
    default:
        return "unassigned"
    }
}

// Placements lists the assignable tiers in index order.
var Placements = []Placement{PlacementEdge, PlacementCloud, PlacementVehicle}

var (
    // ErrNoDescriptor marks a task or result frame without a descriptor.
    ErrNoDescriptor = errors.New("frame carries no task descriptor")
    // ErrPlacementReassigned is returned when a placed task is placed again.
    ErrPlacementReassigned = errors.New("placement already assigned")
)

// Descriptor travels with a task from its creation at the requester to the
// delivery of its response. Timestamps are filled in by the node that
// observes the corresponding event.
type Descriptor struct {
    _ struct{} `cbor:",toarray"`

    RequesterID             uint32        `json:"requesterId"`
    RequesterAddr           Addr          `json:"requesterAddress"`
    Workload                float64       `json:"workload"`
    CreatedAt               sim.Time      `json:"createdAt"`
    CompletedAt             sim.Time      `json:"completedAt"`
    UplinkArrivalAt         sim.Time      `json:"uplinkArrivalAt"`
    QueueingStartedAt       sim.Time      `json:"queueingStartedAt"`
    ProcessingDuration      time.Duration `json:"processingDuration"`
    Placement               Placement     `json:"placement"`
    NeighborCountAtDispatch uint32        `json:"neighborCountAtDispatch"`
    FromVehicleToRequester  bool          `json:"originatedFromVehicleToRequester"`
    TaskID                  uuid.UUID     `json:"taskId"`
}

// NewDescriptor returns an unplaced descriptor for a fresh task.
func NewDescriptor(id uuid.UUID, requester uint32, workload float64, now sim.Time) Descriptor {
    return Descriptor{
        TaskID:      id,
        RequesterID: requester,
        Workload:    workload,
        CreatedAt:   now,
        Placement:   PlacementUnassigned,
    }
}

// Place assigns the execution tier. It fails if a tier is already set.
func (d *Descriptor) Place(p Placement) error {
    if d.Placement != PlacementUnassigned {
        return fmt.Errorf("%w: %s -> %s", ErrPlacementReassigned, d.Placement, p)
    }
    d.Placement = p
    return nil
}

// Serve records the start of service and returns its duration for the
// given capacity: workload / capacity seconds.
func (d *Descriptor) Serve(now sim.Time, capacity float64) time.Duration {
    d.QueueingStartedAt = now
    d.ProcessingDuration = sim.Seconds(d.Workload / capacity)
    return d.ProcessingDuration
}

// RoundTrip is the latency observed by the requester.
func (d *Descriptor) RoundTrip() time.Duration { return d.CompletedAt.Sub(d.CreatedAt) }

// Uplink is the time from creation to arrival at the executing tier.
func (d *Descriptor) Uplink() time.Duration { return d.UplinkArrivalAt.Sub(d.CreatedAt) }

// Queueing is the time spent waiting in a queue before service.
func (d *Descriptor) Queueing() time.Duration { return d.QueueingStartedAt.Sub(d.UplinkArrivalAt) }

// Protobuf field numbers, in the order the fields are defined.
const (
    fdRequesterID protowire.Number = iota + 1
    fdRequesterAddr
    fdWorkload
    fdCreatedAt
    fdCompletedAt
    fdUplinkArrivalAt
    fdQueueingStartedAt
    fdProcessingDuration
    fdPlacement
    fdNeighborCount
    fdFromVehicle
    fdTaskID
)

// MarshalProto encodes the descriptor in protobuf wire format.
func (d *Descriptor) MarshalProto() ([]byte, error) {
    b := make([]byte, 0, 96)
    b = appendVarint(b, fdRequesterID, uint64(d.RequesterID))
    b = protowire.AppendTag(b, fdRequesterAddr, protowire.BytesType)
    b = protowire.AppendBytes(b, marshalAddr(d.RequesterAddr))
    b = protowire.AppendTag(b, fdWorkload, protowire.Fixed64Type)
    b = protowire.AppendFixed64(b, math.Float64bits(d.Workload))
    b = appendVarint(b, fdCreatedAt, uint64(d.CreatedAt))
    b = appendVarint(b, fdCompletedAt, uint64(d.CompletedAt))
    b = appendVarint(b, fdUplinkArrivalAt, uint64(d.UplinkArrivalAt))
    b = appendVarint(b, fdQueueingStartedAt, uint64(d.QueueingStartedAt))
    b = appendVarint(b, fdProcessingDuration, uint64(d.ProcessingDuration))
    b = appendVarint(b, fdPlacement, protowire.EncodeZigZag(int64(d.Placement)))
    b = appendVarint(b, fdNeighborCount, uint64(d.NeighborCountAtDispatch))
    b = appendVarint(b, fdFromVehicle, protowire.EncodeBool(d.FromVehicleToRequester))
    b = protowire.AppendTag(b, fdTaskID, protowire.BytesType)
    b = protowire.AppendBytes(b, d.TaskID[:])
    return b, nil
}

// UnmarshalProto decodes a descriptor produced by MarshalProto. Unknown
// fields are skipped.
func (d *Descriptor) UnmarshalProto(b []byte) error {
    *d = Descriptor{Placement: PlacementUnassigned}
    for len(b) > 0 {
        num, typ, n := protowire.ConsumeTag(b)
        if n < 0 { return protowire.ParseError(n) }
        b = b[n:]
        switch {
        case num == fdRequesterAddr && typ == protowire.BytesType:
            v, m := protowire.ConsumeBytes(b)
            if m < 0 { return protowire.ParseError(m) }
            a, err := unmarshalAddr(v)
            if err != nil { return err }
            d.RequesterAddr = a
            n = m
        case num == fdWorkload && typ == protowire.Fixed64Type:
            v, m := protowire.ConsumeFixed64(b)
            if m < 0 { return protowire.ParseError(m) }
            d.Workload = math.Float64frombits(v)
            n = m
        case num == fdTaskID && typ == protowire.BytesType:
            v, m := protowire.ConsumeBytes(b)
            if m < 0 { return protowire.ParseError(m) }
            id, err := uuid.FromBytes(v)
            if err != nil { return fmt.Errorf("task id: %w", err) }
            d.TaskID = id
            n = m
        case typ == protowire.VarintType && num >= fdRequesterID && num <= fdFromVehicle:
            v, m := protowire.ConsumeVarint(b)
            if m < 0 { return protowire.ParseError(m) }
            d.setVarint(num, v)
            n = m
        default:
            n = protowire.ConsumeFieldValue(num, typ, b)
            if n < 0 { return protowire.ParseError(n) }
        }
        b = b[n:]
    }
    return nil
}

func (d *Descriptor) setVarint(num protowire.Number, v uint64) {
    switch num {
    case fdRequesterID:
        d.RequesterID = uint32(v)
    case fdCreatedAt:
        d.CreatedAt = sim.Time(v)
    case fdCompletedAt:
        d.CompletedAt = sim.Time(v)
    case fdUplinkArrivalAt:
        d.UplinkArrivalAt = sim.Time(v)
    case fdQueueingStartedAt:
        d.QueueingStartedAt = sim.Time(v)
    case fdProcessingDuration:
        d.ProcessingDuration = time.Duration(v)
    case fdPlacement:
        d.Placement = Placement(protowire.DecodeZigZag(v))
    case fdNeighborCount:
        d.NeighborCountAtDispatch = uint32(v)
    case fdFromVehicle:
        d.FromVehicleToRequester = protowire.DecodeBool(v)
    }
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
    b = protowire.AppendTag(b, num, protowire.VarintType)
    return protowire.AppendVarint(b, v)
}

func marshalAddr(a Addr) []byte {
    b := appendVarint(nil, 1, uint64(a.Host))
    return appendVarint(b, 2, uint64(a.Port))
}

func unmarshalAddr(b []byte) (Addr, error) {
    var a Addr
    for len(b) > 0 {
        num, typ, n := protowire.ConsumeTag(b)
        if n < 0 { return a, protowire.ParseError(n) }
        b = b[n:]
        if typ != protowire.VarintType {
            n = protowire.ConsumeFieldValue(num, typ, b)
            if n < 0 { return a, protowire.ParseError(n) }
            b = b[n:]
            continue
        }
        v, m := protowire.ConsumeVarint(b)
        if m < 0 { return a, protowire.ParseError(m) }
        switch num {
        case 1:
            a.Host = uint32(v)
        case 2:
            a.Port = uint16(v)
        }
        b = b[m:]
    }
    return a, nil
}
