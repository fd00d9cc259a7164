// Package node implements the simulated applications: pedestrians that
// generate tasks, the edge node that places them, vehicles and the cloud
// that execute them.
package node

import (
    "errors"
    "fmt"

    "go.uber.org/zap"

    "coesim/pkg/config"
    "coesim/pkg/network"
    "coesim/pkg/observability"
    "coesim/pkg/protocol"
    "coesim/pkg/protocol/codec"
    "coesim/pkg/sim"
)

// Application is a simulated node program. Start binds the node's ports and
// schedules its first events; HandleMessage receives every frame addressed
// to one of those ports.
type Application interface {
    Start() error
    HandleMessage(d network.Delivery)
}

// Env bundles the shared services of one run.
type Env struct {
    Sched   *sim.Scheduler
    Net     *network.Fabric
    Sink    *observability.Sink
    Metrics *observability.Metrics
    Codecs  *codec.Registry
    Format  protocol.Format
    Sim     config.Simulation

    anomalies uint64
    corrupt   uint64
}

// Anomalies counts frames dropped as protocol anomalies during the run.
func (e *Env) Anomalies() uint64 { return e.anomalies }

// CorruptDrops counts frames dropped because the link damaged them.
func (e *Env) CorruptDrops() uint64 { return e.corrupt }

// Validate reports missing services.
func (e *Env) Validate() error {
    var errs []error
    if e.Sched == nil { errs = append(errs, errors.New("scheduler")) }
    if e.Net == nil { errs = append(errs, errors.New("network")) }
    if e.Sink == nil { errs = append(errs, errors.New("sink")) }
    if e.Metrics == nil { errs = append(errs, errors.New("metrics")) }
    if e.Codecs == nil { errs = append(errs, errors.New("codec registry")) }
    if len(errs) > 0 { return fmt.Errorf("node env missing: %w", errors.Join(errs...)) }
    return nil
}

// base carries what every node kind shares.
type base struct {
    env  *Env
    id   uint32
    host uint32
    kind string
    log  *zap.Logger
}

func newBase(env *Env, kind string, id, host uint32) base {
    return base{env: env, id: id, host: host, kind: kind, log: observability.NodeLogger(kind, id)}
}

// ID is the node identifier used as requester id in descriptors.
func (b *base) ID() uint32 { return b.id }

// Host is the node's network host number.
func (b *base) Host() uint32 { return b.host }

func (b *base) addr(port uint16) protocol.Addr { return protocol.HostAddr(b.host, port) }

func (b *base) now() sim.Time { return b.env.Sched.Now() }

func (b *base) listen(ports []uint16, h network.Handler) error {
    for _, p := range ports {
        if err := b.env.Net.Listen(b.addr(p), h); err != nil { return fmt.Errorf("%s %d: %w", b.kind, b.id, err) }
    }
    return nil
}

// sendTask encodes d into a frame of type typ padded to the configured
// packet size and hands it to the network.
func (b *base) sendTask(typ uint8, from, to protocol.Addr, d *protocol.Descriptor) {
    env, err := protocol.NewTaskEnvelope(typ, from, to, d, b.env.Format, b.env.Codecs)
    if err != nil {
        b.log.Error("encode descriptor", zap.Error(err), observability.At(b.now()))
        return
    }
    b.send(from, to, env)
}

func (b *base) send(from, to protocol.Addr, env protocol.Envelope) {
    env.PadTo(b.env.Sim.PacketSize)
    if err := b.env.Net.Send(from, to, env); err != nil {
        b.log.Warn("send failed", zap.Error(err), zap.Stringer("to", to), observability.At(b.now()))
    }
}

// accept filters out corrupt frames, recording the drop. It reports whether
// the delivery may be processed.
func (b *base) accept(d network.Delivery) bool {
    if !d.Corrupt { return true }
    b.env.corrupt++
    b.log.Debug("corrupt frame dropped", zap.Stringer("from", d.From), zap.Stringer("to", d.To), observability.At(b.now()))
    b.env.Sink.Record(observability.CatCorrupt, b.now(), "corrupt frame dropped",
        zap.String("node_kind", b.kind), zap.Uint32("node", b.id),
        zap.Stringer("from", d.From), zap.Stringer("to", d.To),
        zap.Float64("sent_at", d.SentAt.Seconds()))
    return false
}

// descriptor extracts the task descriptor of d. Frames without one are
// recorded as protocol anomalies and dropped.
func (b *base) descriptor(d network.Delivery) (protocol.Descriptor, bool) {
    desc, err := protocol.DescriptorOf(&d.Envelope, b.env.Codecs)
    if err != nil {
        b.anomaly(d, "missing descriptor", err)
        return protocol.Descriptor{}, false
    }
    return desc, true
}

func (b *base) anomaly(d network.Delivery, reason string, err error) {
    b.env.anomalies++
    b.log.Warn("protocol anomaly", zap.String("reason", reason), zap.Error(err), zap.Stringer("from", d.From), observability.At(b.now()))
    b.env.Sink.Record(observability.CatAnomaly, b.now(), reason,
        zap.String("node_kind", b.kind), zap.Uint32("node", b.id),
        zap.String("msg_type", protocol.MsgName(d.Envelope.Header.Type)),
        zap.Stringer("from", d.From), zap.Error(err))
    b.env.Metrics.Anomaly(b.kind, reason)
}
