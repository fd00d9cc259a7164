package protocol

import (
    "fmt"
    "net/netip"
)

// Addr identifies an application endpoint in the simulated network:
// an IPv4 host number plus a port.
type Addr struct {
    Host uint32 `json:"host" cbor:"1,keyasint"`
    Port uint16 `json:"port" cbor:"2,keyasint"`
}

// HostAddr builds the address of host with port set.
func HostAddr(host uint32, port uint16) Addr { return Addr{Host: host, Port: port} }

// WithPort returns a copy of a on another port of the same host.
func (a Addr) WithPort(port uint16) Addr { return Addr{Host: a.Host, Port: port} }

// Pack folds the address into the 64-bit header representation.
func (a Addr) Pack() uint64 { return uint64(a.Host)<<16 | uint64(a.Port) }

// UnpackAddr reverses Pack.
func UnpackAddr(v uint64) Addr { return Addr{Host: uint32(v >> 16), Port: uint16(v)} }

// IP returns the host part as an IPv4 address.
func (a Addr) IP() netip.Addr {
    return netip.AddrFrom4([4]byte{byte(a.Host >> 24), byte(a.Host >> 16), byte(a.Host >> 8), byte(a.Host)})
}

func (a Addr) String() string { return fmt.Sprintf("%s:%d", a.IP(), a.Port) }
