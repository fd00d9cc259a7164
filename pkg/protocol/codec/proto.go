package codec

import (
    "fmt"

    "google.golang.org/protobuf/proto"
)

type protoCodec struct {
    mo proto.MarshalOptions
    uo proto.UnmarshalOptions
}

// Proto returns a Protocol Buffers codec with deterministic marshaling.
// Values may be generated proto.Message types or WireMessage implementations.
// Content-Type: application/x-protobuf
func Proto() Codec {
    return protoCodec{
        mo: proto.MarshalOptions{Deterministic: true},
        uo: proto.UnmarshalOptions{DiscardUnknown: true},
    }
}

func (p protoCodec) ContentType() string { return "application/x-protobuf" }

func (p protoCodec) Marshal(v any) ([]byte, error) {
    switch msg := v.(type) {
    case proto.Message:
        return p.mo.Marshal(msg)
    case WireMessage:
        return msg.MarshalProto()
    default:
        return nil, fmt.Errorf("protobuf: value is not a protobuf message: %T", v)
    }
}

func (p protoCodec) Unmarshal(data []byte, v any) error {
    switch msg := v.(type) {
    case proto.Message:
        return p.uo.Unmarshal(data, msg)
    case WireMessage:
        return msg.UnmarshalProto(data)
    default:
        return fmt.Errorf("protobuf: target is not a protobuf message: %T", v)
    }
}
