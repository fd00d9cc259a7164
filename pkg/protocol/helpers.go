package protocol

import (
    "errors"
    "fmt"

    "coesim/pkg/protocol/codec"
)

// NewEnvelopeWithBody encodes v according to format and returns an Envelope
// with header set to h and payload set to encoded body (with format prefix).
func NewEnvelopeWithBody(h Header, format Format, v any, reg *codec.Registry) (Envelope, error) {
    b, err := EncodeBody(reg, format, v)
    if err != nil { return Envelope{}, err }
    if h.Version == 0 { h.Version = Version }
    e := Envelope{Header: h, Payload: b}
    e.Header.PayloadLen = uint32(len(b))
    return e, nil
}

// DecodeEnvelopeBody decodes the payload of e into v using the embedded format
// marker. Returns the detected format.
func DecodeEnvelopeBody(e *Envelope, v any, reg *codec.Registry) (Format, error) {
    return DecodeBody(reg, e.Payload, v)
}

// NewTaskEnvelope wraps a descriptor in a task or result frame. The task id
// is mirrored into the header correlation field.
func NewTaskEnvelope(typ uint8, from, to Addr, d *Descriptor, format Format, reg *codec.Registry) (Envelope, error) {
    h := Header{Type: typ, Source: from.Pack(), Dest: to.Pack(), Correlation: [16]byte(d.TaskID)}
    e, err := NewEnvelopeWithBody(h, format, d, reg)
    if err != nil { return Envelope{}, err }
    e.SetFlag(FlagFromVehicle, d.FromVehicleToRequester)
    return e, nil
}

// NewBeaconEnvelope wraps a beacon in a frame.
func NewBeaconEnvelope(from, to Addr, b *Beacon, flags uint32, format Format, reg *codec.Registry) (Envelope, error) {
    h := Header{Type: MsgBeacon, Flags: flags, Source: from.Pack(), Dest: to.Pack()}
    return NewEnvelopeWithBody(h, format, b, reg)
}

// DescriptorOf extracts the descriptor carried by a task or result frame.
// A frame without body or of another type yields ErrNoDescriptor.
func DescriptorOf(e *Envelope, reg *codec.Registry) (Descriptor, error) {
    if e.Header.Type != MsgTask && e.Header.Type != MsgResult {
        return Descriptor{}, fmt.Errorf("%w: %s frame", ErrNoDescriptor, MsgName(e.Header.Type))
    }
    var d Descriptor
    if _, err := DecodeEnvelopeBody(e, &d, reg); err != nil {
        if errors.Is(err, ErrEmptyPayload) { return Descriptor{}, ErrNoDescriptor }
        return Descriptor{}, fmt.Errorf("%w: %v", ErrNoDescriptor, err)
    }
    return d, nil
}

// BeaconOf extracts the beacon carried by a frame.
func BeaconOf(e *Envelope, reg *codec.Registry) (Beacon, error) {
    if e.Header.Type != MsgBeacon {
        return Beacon{}, fmt.Errorf("not a beacon: %s frame", MsgName(e.Header.Type))
    }
    var b Beacon
    if _, err := DecodeEnvelopeBody(e, &b, reg); err != nil { return Beacon{}, fmt.Errorf("decode beacon: %w", err) }
    return b, nil
}
