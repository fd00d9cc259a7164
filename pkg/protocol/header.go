package protocol

import (
    "encoding/binary"
    "errors"
)

// Fixed header layout (64 bytes) prepended to every simulated packet.
// All integer fields are little-endian.
//
//  0  ..1   Magic   'C''E' (0x4543)
//  2        Version u8
//  3        Type    u8
//  4  ..7   Flags   u32
//  8  ..11  PayloadLen u32
//  12 ..27  Correlation [16]byte (task id)
//  28 ..35  Source u64 (packed Addr)
//  36 ..43  Dest   u64 (packed Addr)
//  44 ..51  SentAt i64 (simulated ns)
//  52 ..55  Seq u32
//  56 ..59  Pad u32 (virtual bytes counted on the link, never materialized)
//  60 ..63  Reserved
const (
    headerSize = 64
    magicWord  = uint16(0x4543) // 'C''E'

    // Version of the frame layout produced by this package.
    Version uint8 = 1
)

var (
    ErrShortHeader = errors.New("short header")
    ErrBadMagic    = errors.New("bad magic")
)

// Header describes metadata for an envelope.
type Header struct {
    Version     uint8
    Type        uint8
    Flags       uint32
    PayloadLen  uint32
    Correlation [16]byte
    Source      uint64
    Dest        uint64
    SentAt      int64
    Seq         uint32
    Pad         uint32
}

// MarshalBinary encodes header to 64-byte buffer.
func (h *Header) MarshalBinary() ([]byte, error) {
    buf := make([]byte, headerSize)
    binary.LittleEndian.PutUint16(buf[0:2], magicWord)
    buf[2] = h.Version
    buf[3] = h.Type
    binary.LittleEndian.PutUint32(buf[4:8], h.Flags)
    binary.LittleEndian.PutUint32(buf[8:12], h.PayloadLen)
    copy(buf[12:28], h.Correlation[:])
    binary.LittleEndian.PutUint64(buf[28:36], h.Source)
    binary.LittleEndian.PutUint64(buf[36:44], h.Dest)
    binary.LittleEndian.PutUint64(buf[44:52], uint64(h.SentAt))
    binary.LittleEndian.PutUint32(buf[52:56], h.Seq)
    binary.LittleEndian.PutUint32(buf[56:60], h.Pad)
    return buf, nil
}

// UnmarshalBinary decodes header from 64-byte buffer.
func (h *Header) UnmarshalBinary(buf []byte) error {
    if len(buf) < headerSize {
        return ErrShortHeader
    }
    if binary.LittleEndian.Uint16(buf[0:2]) != magicWord {
        return ErrBadMagic
    }
    h.Version = buf[2]
    h.Type = buf[3]
    h.Flags = binary.LittleEndian.Uint32(buf[4:8])
    h.PayloadLen = binary.LittleEndian.Uint32(buf[8:12])
    copy(h.Correlation[:], buf[12:28])
    h.Source = binary.LittleEndian.Uint64(buf[28:36])
    h.Dest = binary.LittleEndian.Uint64(buf[36:44])
    h.SentAt = int64(binary.LittleEndian.Uint64(buf[44:52]))
    h.Seq = binary.LittleEndian.Uint32(buf[52:56])
    h.Pad = binary.LittleEndian.Uint32(buf[56:60])
    return nil
}

// SourceAddr unpacks the source endpoint.
func (h *Header) SourceAddr() Addr { return UnpackAddr(h.Source) }
