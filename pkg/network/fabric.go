package network

import (
    "fmt"

    "go.uber.org/zap"

    "coesim/pkg/config"
    "coesim/pkg/protocol"
    "coesim/pkg/sim"
)

// Fabric is a star network around one gateway, driven by a sim.Scheduler.
// Like the scheduler it is single-threaded.
type Fabric struct {
    sched     *sim.Scheduler
    rng       *sim.Rand
    links     config.LinkConfig
    hosts     map[uint32]*host
    listeners map[protocol.Addr]Handler
    gateway   uint32
    taps      []Tap
    inRange   func(host uint32, at sim.Time) bool
    seq       uint32
    stats     Stats
    log       *zap.Logger
}

type host struct {
    id   uint32
    role Role
    up   *link // host -> gateway
    down *link // gateway -> host
}

// New returns an empty fabric. rng drives link corruption only.
func New(sched *sim.Scheduler, rng *sim.Rand, links config.LinkConfig) *Fabric {
    return &Fabric{
        sched:     sched,
        rng:       rng,
        links:     links,
        hosts:     make(map[uint32]*host),
        listeners: make(map[protocol.Addr]Handler),
        log:       zap.L().Named("net"),
    }
}

// AddHost registers host id with a role. Exactly one gateway is allowed.
func (f *Fabric) AddHost(id uint32, role Role) error {
    if _, ok := f.hosts[id]; ok {
        return fmt.Errorf("%w: %s", ErrHostExists, protocol.HostAddr(id, 0).IP())
    }
    if role == RoleGateway && f.gateway != 0 {
        return fmt.Errorf("%w: second gateway %s", ErrHostExists, protocol.HostAddr(id, 0).IP())
    }
    h := &host{id: id, role: role}
    switch role {
    case RoleGateway:
        f.gateway = id
    case RoleCloud:
        h.up = newLink(f.links.BackboneLatency, f.links.BackboneMbps)
        h.down = newLink(f.links.BackboneLatency, f.links.BackboneMbps)
    default:
        h.up = newLink(f.links.RadioLatency, f.links.RadioMbps)
        h.down = newLink(f.links.RadioLatency, f.links.RadioMbps)
    }
    f.hosts[id] = h
    f.log.Debug("host added", zap.Stringer("ip", protocol.HostAddr(id, 0).IP()), zap.Stringer("role", role))
    return nil
}

// Listen binds h to addr.
func (f *Fabric) Listen(addr protocol.Addr, h Handler) error {
    if _, ok := f.hosts[addr.Host]; !ok {
        return fmt.Errorf("%w: %s", ErrNoRoute, addr)
    }
    if _, ok := f.listeners[addr]; ok {
        return fmt.Errorf("%w: %s", ErrAddrInUse, addr)
    }
    f.listeners[addr] = h
    return nil
}

// Tap registers an observer of frames transiting the gateway.
func (f *Fabric) Tap(t Tap) { f.taps = append(f.taps, t) }

// SetCoverage installs a predicate telling whether a radio host can reach
// the gateway at a given time. Frames from or to a host out of range are lost.
func (f *Fabric) SetCoverage(inRange func(host uint32, at sim.Time) bool) { f.inRange = inRange }

// Stats returns the frame counters.
func (f *Fabric) Stats() Stats { return f.stats }

// Gateway returns the gateway host id, or 0.
func (f *Fabric) Gateway() uint32 { return f.gateway }

// Send hands env to the fabric for delivery from -> to. Source, destination,
// send time and sequence number are stamped into the header. Loss on the way
// is not an error; unknown hosts are.
func (f *Fabric) Send(from, to protocol.Addr, env protocol.Envelope) error {
    src, ok := f.hosts[from.Host]
    if !ok { return fmt.Errorf("%w: source %s", ErrNoRoute, from) }
    dst, ok := f.hosts[to.Host]
    if !ok { return fmt.Errorf("%w: %s", ErrNoRoute, to) }
    if f.gateway == 0 && src != dst { return ErrNoGateway }

    now := f.sched.Now()
    f.seq++
    env.Header.Source = from.Pack()
    env.Header.Dest = to.Pack()
    env.Header.SentAt = int64(now)
    env.Header.Seq = f.seq
    frame, err := env.EncodeFrame()
    if err != nil { return fmt.Errorf("encode frame: %w", err) }
    size := env.Size()
    f.stats.Sent++
    f.stats.Bytes += uint64(size)

    if !f.reachable(src, now) || !f.reachable(dst, now) {
        f.stats.OutOfRange++
        f.log.Debug("frame lost out of range", zap.Stringer("from", from), zap.Stringer("to", to), zap.String("type", protocol.MsgName(env.Header.Type)))
        return nil
    }
    corrupt := false
    if f.links.CorruptRate > 0 && f.rng.Float64() < f.links.CorruptRate {
        frame[f.rng.Intn(len(frame))] ^= byte(1 << f.rng.Intn(8))
        corrupt = true
    }
    p := &packet{from: from, to: to, frame: frame, size: size, sentAt: now, corrupt: corrupt}

    switch {
    case src == dst:
        f.sched.After(0, func() { f.deliver(p) })
    case src.role == RoleGateway:
        f.sched.At(dst.down.transmit(now, size), func() { f.deliver(p) })
    case dst.role == RoleGateway:
        f.sched.At(src.up.transmit(now, size), func() { f.deliver(p) })
    default:
        f.sched.At(src.up.transmit(now, size), func() { f.transit(p, dst) })
    }
    return nil
}

type packet struct {
    from, to protocol.Addr
    frame    []byte
    size     int
    sentAt   sim.Time
    corrupt  bool
}

func (f *Fabric) transit(p *packet, dst *host) {
    now := f.sched.Now()
    f.stats.Transited++
    if len(f.taps) > 0 {
        d := p.decode(now)
        for _, t := range f.taps { t(d) }
    }
    if !f.reachable(dst, now) {
        f.stats.OutOfRange++
        f.log.Debug("frame lost out of range at gateway", zap.Stringer("to", p.to))
        return
    }
    f.sched.At(dst.down.transmit(now, p.size), func() { f.deliver(p) })
}

func (f *Fabric) deliver(p *packet) {
    now := f.sched.Now()
    h, ok := f.listeners[p.to]
    if !ok {
        f.stats.Unclaimed++
        f.log.Debug("no listener", zap.Stringer("to", p.to), zap.Stringer("from", p.from))
        return
    }
    d := p.decode(now)
    if d.Corrupt {
        f.stats.Corrupted++
    } else {
        f.stats.Delivered++
    }
    h(d)
}

func (p *packet) decode(now sim.Time) Delivery {
    d := Delivery{From: p.from, To: p.to, SentAt: p.sentAt, ArrivedAt: now, Corrupt: p.corrupt}
    if err := d.Envelope.DecodeFrame(p.frame); err != nil { d.Corrupt = true }
    return d
}

func (f *Fabric) reachable(h *host, at sim.Time) bool {
    if f.inRange == nil || h.role != RoleRadio { return true }
    return f.inRange(h.id, at)
}
