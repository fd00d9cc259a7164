package protocol

import (
    "errors"
    "testing"
    "time"

    "github.com/google/uuid"

    "coesim/pkg/geo"
    "coesim/pkg/protocol/codec"
    "coesim/pkg/sim"
)

func sampleDescriptor() Descriptor {
    d := NewDescriptor(uuid.MustParse("6f1c2a4e-9d1b-4c7e-8a55-0b8e3f2d7c11"), 3, 1028, sim.Time(2*time.Second))
    d.RequesterAddr = HostAddr(0x07000004, PortResponse)
    d.UplinkArrivalAt = sim.Time(2*time.Second + 3*time.Millisecond)
    d.QueueingStartedAt = d.UplinkArrivalAt
    d.ProcessingDuration = 1372 * time.Microsecond
    d.NeighborCountAtDispatch = 4
    d.FromVehicleToRequester = true
    _ = d.Place(PlacementVehicle)
    return d
}

func TestDescriptorPlaceOnce(t *testing.T) {
    d := NewDescriptor(uuid.New(), 1, 10, 0)
    if d.Placement != PlacementUnassigned { t.Fatalf("new descriptor should be unassigned") }
    if err := d.Place(PlacementCloud); err != nil { t.Fatalf("place: %v", err) }
    if err := d.Place(PlacementEdge); !errors.Is(err, ErrPlacementReassigned) { t.Fatalf("want ErrPlacementReassigned, got %v", err) }
    if d.Placement != PlacementCloud { t.Fatalf("placement changed to %s", d.Placement) }
}

func TestDescriptorServeFollowsWorkloadOverCapacity(t *testing.T) {
    d := NewDescriptor(uuid.New(), 1, 1028, 0)
    got := d.Serve(sim.Time(time.Second), 749070)
    want := sim.Seconds(1028.0 / 749070.0)
    if got != want || d.ProcessingDuration != want { t.Fatalf("duration = %s, want %s", got, want) }
    if d.QueueingStartedAt != sim.Time(time.Second) { t.Fatalf("queueing start not stamped") }
}

func TestDescriptorBodiesInEveryFormat(t *testing.T) {
    reg, err := codec.DefaultRegistry()
    if err != nil { t.Fatalf("registry: %v", err) }
    in := sampleDescriptor()
    for _, f := range []Format{FormatProto, FormatCBOR, FormatJSON} {
        env, err := NewTaskEnvelope(MsgResult, HostAddr(9, PortTask), in.RequesterAddr, &in, f, reg)
        if err != nil { t.Fatalf("%s: envelope: %v", f, err) }
        if !env.HasFlag(FlagFromVehicle) { t.Fatalf("%s: vehicle flag missing", f) }
        if env.Header.Correlation != [16]byte(in.TaskID) { t.Fatalf("%s: correlation not mirrored", f) }
        out, err := DescriptorOf(&env, reg)
        if err != nil { t.Fatalf("%s: decode: %v", f, err) }
        if out != in { t.Fatalf("%s: descriptor mismatch\n got %+v\nwant %+v", f, out, in) }
    }
}

func TestDescriptorProtoFieldOrder(t *testing.T) {
    d := sampleDescriptor()
    b, err := d.MarshalProto()
    if err != nil { t.Fatalf("marshal: %v", err) }
    // requesterId is field 1, varint
    if b[0] != 0x08 || b[1] != 3 { t.Fatalf("unexpected leading bytes % x", b[:2]) }
}

func TestDescriptorOfMissingBody(t *testing.T) {
    reg := codec.NewRegistry()
    env := Envelope{Header: Header{Version: Version, Type: MsgResult}}
    if _, err := DescriptorOf(&env, reg); !errors.Is(err, ErrNoDescriptor) { t.Fatalf("want ErrNoDescriptor, got %v", err) }

    b := Beacon{VehicleID: 1, QueueCapacity: 1}
    benv, err := NewBeaconEnvelope(HostAddr(1, PortBeacon), HostAddr(2, PortBeacon), &b, 0, FormatProto, reg)
    if err != nil { t.Fatalf("beacon: %v", err) }
    if _, err := DescriptorOf(&benv, reg); !errors.Is(err, ErrNoDescriptor) { t.Fatalf("beacon frame should carry no descriptor, got %v", err) }
}

func TestBeaconBodies(t *testing.T) {
    reg, err := codec.DefaultRegistry()
    if err != nil { t.Fatalf("registry: %v", err) }
    in := Beacon{VehicleID: 12, Position: geo.Position{X: 301.5, Y: -20.25, Z: 1}, QueueOccupancy: 0, QueueCapacity: 1, BeaconTimestamp: sim.Time(100 * time.Millisecond)}
    for _, f := range []Format{FormatProto, FormatCBOR, FormatJSON} {
        env, err := NewBeaconEnvelope(HostAddr(0x07000010, PortBeacon), HostAddr(0x07000001, PortBeacon), &in, FlagResync, f, reg)
        if err != nil { t.Fatalf("%s: envelope: %v", f, err) }
        out, err := BeaconOf(&env, reg)
        if err != nil { t.Fatalf("%s: decode: %v", f, err) }
        if out != in { t.Fatalf("%s: beacon mismatch %+v", f, out) }
        if !out.HasRoom() { t.Fatalf("beacon with free slot reported full") }
    }
}
