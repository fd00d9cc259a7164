package protocol

import (
    "bytes"
    "errors"
    "testing"
)

func TestHeaderRoundtrip(t *testing.T) {
    var h Header
    h.Version = Version
    h.Type = MsgResult
    h.Flags = FlagFromVehicle
    h.PayloadLen = 1234
    for i := 0; i < len(h.Correlation); i++ { h.Correlation[i] = byte(i) }
    h.Source = HostAddr(0x0a000102, PortTask).Pack()
    h.Dest = HostAddr(0x07000001, PortResponse).Pack()
    h.SentAt = 1_500_000_000
    h.Seq = 42
    h.Pad = 960

    b, err := h.MarshalBinary()
    if err != nil { t.Fatalf("marshal: %v", err) }
    if len(b) != headerSize { t.Fatalf("header size = %d", len(b)) }

    var h2 Header
    if err := h2.UnmarshalBinary(b); err != nil { t.Fatalf("unmarshal: %v", err) }

    if h2.Version != h.Version || h2.Type != h.Type || h2.Flags != h.Flags ||
        h2.PayloadLen != h.PayloadLen || !bytes.Equal(h2.Correlation[:], h.Correlation[:]) ||
        h2.Source != h.Source || h2.Dest != h.Dest || h2.SentAt != h.SentAt ||
        h2.Seq != h.Seq || h2.Pad != h.Pad {
        t.Fatalf("headers differ: %#v vs %#v", h2, h)
    }
    if got := h2.SourceAddr(); got.Port != PortTask || got.Host != 0x0a000102 { t.Fatalf("source addr = %v", got) }
}

func TestHeaderRejectsGarbage(t *testing.T) {
    var h Header
    if err := h.UnmarshalBinary(make([]byte, 10)); !errors.Is(err, ErrShortHeader) { t.Fatalf("want ErrShortHeader, got %v", err) }
    if err := h.UnmarshalBinary(make([]byte, headerSize)); !errors.Is(err, ErrBadMagic) { t.Fatalf("want ErrBadMagic, got %v", err) }
}

func TestAddrString(t *testing.T) {
    a := HostAddr(0x07000001, PortBeacon)
    if a.String() != "7.0.0.1:8888" { t.Fatalf("unexpected %s", a) }
    if UnpackAddr(a.Pack()) != a { t.Fatalf("pack/unpack mismatch") }
    if a.WithPort(PortTask).Port != PortTask { t.Fatalf("WithPort did not change port") }
}
