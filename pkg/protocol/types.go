package protocol

// Message types (fits in uint8)
const (
    MsgUnknown uint8 = iota
    MsgTask           // task submission, pedestrian -> edge -> compute node
    MsgResult         // task response, compute node -> requester
    MsgBeacon         // vehicle availability advertisement
)

// Flags bitmask (uint32)
const (
    FlagFromVehicle uint32 = 1 << 0 // response produced by a vehicle, sent straight to the requester
    FlagResync      uint32 = 1 << 1 // beacon belongs to the periodic schedule
    FlagFast        uint32 = 1 << 2 // one-shot beacon after a queue change
)

// Well-known ports of the simulated applications.
const (
    PortTask     uint16 = 7777
    PortBeacon   uint16 = 8888
    PortResponse uint16 = 9999
)

// ContentType is optional hint for payload decoding.
// Kept as constants to avoid coupling; not serialized in header.
const (
    ContentUnknown = "application/octet-stream"
    ContentCBOR    = "application/cbor"
    ContentJSON    = "application/json"
    ContentProto   = "application/x-protobuf"
)

// MsgName returns a short label for a message type, used in logs.
func MsgName(t uint8) string {
    switch t {
    case MsgTask:
        return "task"
    case MsgResult:
        return "result"
    case MsgBeacon:
        return "beacon"
    default:
        return "unknown"
    }
}
