package protocol

import (
    "bytes"
    "testing"
)

func TestEnvelopeFrameEncodeDecode(t *testing.T) {
    e := Envelope{Header: Header{
        Version: Version,
        Type:    MsgTask,
        Source:  HostAddr(1, PortResponse).Pack(),
        Dest:    HostAddr(2, PortTask).Pack(),
        Seq:     9,
    }}
    e.Payload = []byte("hello")

    frame, err := e.EncodeFrame()
    if err != nil { t.Fatalf("encode: %v", err) }

    var d Envelope
    if err := d.DecodeFrame(frame); err != nil { t.Fatalf("decode: %v", err) }

    if !bytes.Equal(d.Payload, e.Payload) { t.Fatalf("payload mismatch") }
    if d.Header.Type != e.Header.Type || d.Header.Seq != e.Header.Seq || d.Header.Source != e.Header.Source || d.Header.Dest != e.Header.Dest {
        t.Fatalf("header mismatch")
    }
}

func TestEnvelopeStreamReadWrite(t *testing.T) {
    var buf bytes.Buffer
    in := []Envelope{
        {Header: Header{Version: Version, Type: MsgBeacon}, Payload: []byte{1, 2, 3}},
        {Header: Header{Version: Version, Type: MsgResult}},
    }
    for i := range in {
        if _, err := in[i].WriteTo(&buf); err != nil { t.Fatalf("write %d: %v", i, err) }
    }
    for i := range in {
        var out Envelope
        if _, err := out.ReadFrom(&buf); err != nil { t.Fatalf("read %d: %v", i, err) }
        if out.Header.Type != in[i].Header.Type || !bytes.Equal(out.Payload, in[i].Payload) { t.Fatalf("frame %d mismatch", i) }
    }
}

func TestPadToCountsVirtualBytes(t *testing.T) {
    e := Envelope{Payload: make([]byte, 36)}
    e.PadTo(1024)
    if e.Size() != 1024 { t.Fatalf("size = %d, want 1024", e.Size()) }
    e.PadTo(10)
    if e.Header.Pad != 0 || e.Size() != headerSize+36 { t.Fatalf("padding should not shrink frames: %d", e.Size()) }
}
