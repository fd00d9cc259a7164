package node

import (
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "coesim/pkg/geo"
    "coesim/pkg/network"
    "coesim/pkg/observability"
    "coesim/pkg/protocol"
    "coesim/pkg/sim"
)

// Pedestrian is an open-loop task source: requests leave at exponentially
// distributed gaps regardless of outstanding responses.
type Pedestrian struct {
    base
    edge     protocol.Addr
    position geo.Position
    rng      *sim.Rand
    stats    PedestrianStats
}

// PedestrianStats summarizes one pedestrian's traffic.
type PedestrianStats struct {
    Sent      uint64
    Completed map[protocol.Placement]uint64
    // Latencies holds the round-trip time of every completed task, by tier.
    Latencies map[protocol.Placement][]time.Duration
}

// NewPedestrian creates the source with node id on host, sending to edge.
func NewPedestrian(env *Env, id, host uint32, edge protocol.Addr, pos geo.Position, rng *sim.Rand) *Pedestrian {
    return &Pedestrian{
        base:     newBase(env, "pedestrian", id, host),
        edge:     edge,
        position: pos,
        rng:      rng,
        stats: PedestrianStats{
            Completed: make(map[protocol.Placement]uint64),
            Latencies: make(map[protocol.Placement][]time.Duration),
        },
    }
}

// Start binds the response port and schedules the first request after a
// short random jitter.
func (p *Pedestrian) Start() error {
    if err := p.listen([]uint16{protocol.PortResponse}, p.HandleMessage); err != nil { return err }
    s := p.env.Sim
    p.env.Sched.After(p.rng.Uniform(s.StartJitterMin, s.StartJitterMax), p.SendRequest)
    p.log.Debug("pedestrian started", zap.Stringer("position", p.position), zap.Stringer("edge", p.edge))
    return nil
}

// SendRequest emits one task and schedules the next.
func (p *Pedestrian) SendRequest() {
    now := p.now()
    id, err := uuid.NewRandomFromReader(p.rng)
    if err != nil {
        p.log.Error("task id", zap.Error(err))
        return
    }
    d := protocol.NewDescriptor(id, p.id, p.env.Sim.Workload, now)
    p.sendTask(protocol.MsgTask, p.addr(protocol.PortResponse), p.edge, &d)
    p.stats.Sent++
    p.env.Metrics.TaskSent()
    p.env.Sink.Record(observability.CatSent, now, "sent", observability.TaskFields(&d)...)

    mean := time.Duration(p.env.Sim.RequestRateMS * float64(time.Millisecond))
    gap := p.rng.Exponential(mean, p.env.Sim.RequestGapBound)
    p.env.Sched.After(gap, p.SendRequest)
}

// HandleMessage accepts task responses.
func (p *Pedestrian) HandleMessage(d network.Delivery) {
    if !p.accept(d) { return }
    if d.Envelope.Header.Type != protocol.MsgResult {
        p.anomaly(d, "unexpected message", nil)
        return
    }
    desc, ok := p.descriptor(d)
    if !ok { return }
    p.OnResponseReceived(desc)
}

// OnResponseReceived closes the round trip of a task.
func (p *Pedestrian) OnResponseReceived(d protocol.Descriptor) {
    d.CompletedAt = p.now()
    rtt := d.RoundTrip()
    p.stats.Completed[d.Placement]++
    p.stats.Latencies[d.Placement] = append(p.stats.Latencies[d.Placement], rtt)
    p.env.Metrics.Completed(d.Placement, rtt)
    p.env.Sink.Record(observability.CatOffloading, d.CompletedAt, "completed",
        append(observability.TaskFields(&d),
            zap.Duration("uplink", d.Uplink()),
            zap.Duration("queueing", d.Queueing()),
            zap.Duration("round_trip", rtt))...)
    p.log.Debug("response received", zap.Stringer("task", d.TaskID), zap.Stringer("placement", d.Placement), zap.Duration("rtt", rtt), observability.At(d.CompletedAt))
}

// Stats returns the pedestrian's counters.
func (p *Pedestrian) Stats() PedestrianStats { return p.stats }

// Position is the fixed location of the pedestrian.
func (p *Pedestrian) Position() geo.Position { return p.position }
