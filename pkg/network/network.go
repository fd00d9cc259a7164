package network

import (
    "errors"

    "coesim/pkg/protocol"
    "coesim/pkg/sim"
)

// Role classifies a host for routing and link selection.
type Role int

const (
    RoleUnknown Role = iota
    RoleGateway
    RoleCloud
    RoleRadio
)

func (r Role) String() string {
    switch r {
    case RoleGateway:
        return "gateway"
    case RoleCloud:
        return "cloud"
    case RoleRadio:
        return "radio"
    default:
        return "unknown"
    }
}

var (
    ErrHostExists = errors.New("network: host already registered")
    ErrAddrInUse  = errors.New("network: address already in use")
    ErrNoRoute    = errors.New("network: no route to host")
    ErrNoGateway  = errors.New("network: gateway not registered")
)

// Delivery is one frame arriving at an endpoint.
type Delivery struct {
    Envelope  protocol.Envelope
    From      protocol.Addr
    To        protocol.Addr
    SentAt    sim.Time
    ArrivedAt sim.Time
    // Corrupt is set when the link damaged the frame. The envelope is then
    // whatever could be parsed and must not be trusted.
    Corrupt bool
}

// Handler consumes deliveries on a bound address.
type Handler func(Delivery)

// Tap observes frames forwarded by the gateway between two other hosts.
type Tap func(Delivery)

// Stats counts frames by outcome.
type Stats struct {
    Sent       uint64
    Delivered  uint64
    Corrupted  uint64
    OutOfRange uint64
    Unclaimed  uint64
    Transited  uint64
    Bytes      uint64
}

// IPv4 packs four octets into a host number.
func IPv4(a, b, c, d byte) uint32 { return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d) }

// Default address plan: the gNB sits at 7.0.0.1, user equipment is numbered
// from 7.0.0.2 in creation order, the remote host is 1.0.0.2.
var (
    GatewayHost = IPv4(7, 0, 0, 1)
    CloudHost   = IPv4(1, 0, 0, 2)
)

// UEHost returns the host number of the i-th user equipment.
func UEHost(i int) uint32 { return IPv4(7, 0, 0, 2) + uint32(i) }
