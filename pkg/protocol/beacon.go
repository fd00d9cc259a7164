package protocol

import (
    "math"

    "google.golang.org/protobuf/encoding/protowire"

    "coesim/pkg/geo"
    "coesim/pkg/sim"
)

// Beacon advertises a vehicle's position and spare queue capacity to the
// edge node.
type Beacon struct {
    _ struct{} `cbor:",toarray"`

    VehicleID       uint32       `json:"vehicleId"`
    Position        geo.Position `json:"position"`
    QueueOccupancy  uint32       `json:"queueOccupancy"`
    QueueCapacity   uint32       `json:"queueCapacity"`
    BeaconTimestamp sim.Time     `json:"beaconTimestamp"`
}

// HasRoom reports whether the sender can accept another task.
func (b *Beacon) HasRoom() bool { return b.QueueOccupancy < b.QueueCapacity }

const (
    fbVehicleID protowire.Number = iota + 1
    fbPosition
    fbOccupancy
    fbCapacity
    fbTimestamp
)

// MarshalProto encodes the beacon in protobuf wire format.
func (b *Beacon) MarshalProto() ([]byte, error) {
    out := make([]byte, 0, 48)
    out = appendVarint(out, fbVehicleID, uint64(b.VehicleID))
    out = protowire.AppendTag(out, fbPosition, protowire.BytesType)
    out = protowire.AppendBytes(out, marshalPosition(b.Position))
    out = appendVarint(out, fbOccupancy, uint64(b.QueueOccupancy))
    out = appendVarint(out, fbCapacity, uint64(b.QueueCapacity))
    out = appendVarint(out, fbTimestamp, uint64(b.BeaconTimestamp))
    return out, nil
}

// UnmarshalProto decodes a beacon produced by MarshalProto.
func (b *Beacon) UnmarshalProto(buf []byte) error {
    *b = Beacon{}
    for len(buf) > 0 {
        num, typ, n := protowire.ConsumeTag(buf)
        if n < 0 { return protowire.ParseError(n) }
        buf = buf[n:]
        switch {
        case num == fbPosition && typ == protowire.BytesType:
            v, m := protowire.ConsumeBytes(buf)
            if m < 0 { return protowire.ParseError(m) }
            p, err := unmarshalPosition(v)
            if err != nil { return err }
            b.Position = p
            n = m
        case typ == protowire.VarintType:
            v, m := protowire.ConsumeVarint(buf)
            if m < 0 { return protowire.ParseError(m) }
            switch num {
            case fbVehicleID:
                b.VehicleID = uint32(v)
            case fbOccupancy:
                b.QueueOccupancy = uint32(v)
            case fbCapacity:
                b.QueueCapacity = uint32(v)
            case fbTimestamp:
                b.BeaconTimestamp = sim.Time(v)
            }
            n = m
        default:
            n = protowire.ConsumeFieldValue(num, typ, buf)
            if n < 0 { return protowire.ParseError(n) }
        }
        buf = buf[n:]
    }
    return nil
}

func marshalPosition(p geo.Position) []byte {
    var b []byte
    for i, v := range [3]float64{p.X, p.Y, p.Z} {
        b = protowire.AppendTag(b, protowire.Number(i+1), protowire.Fixed64Type)
        b = protowire.AppendFixed64(b, math.Float64bits(v))
    }
    return b
}

func unmarshalPosition(b []byte) (geo.Position, error) {
    var xyz [3]float64
    for len(b) > 0 {
        num, typ, n := protowire.ConsumeTag(b)
        if n < 0 { return geo.Position{}, protowire.ParseError(n) }
        b = b[n:]
        if typ == protowire.Fixed64Type && num >= 1 && num <= 3 {
            v, m := protowire.ConsumeFixed64(b)
            if m < 0 { return geo.Position{}, protowire.ParseError(m) }
            xyz[num-1] = math.Float64frombits(v)
            b = b[m:]
            continue
        }
        n = protowire.ConsumeFieldValue(num, typ, b)
        if n < 0 { return geo.Position{}, protowire.ParseError(n) }
        b = b[n:]
    }
    return geo.Position{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
