package node

import (
    "go.uber.org/zap"

    "coesim/pkg/network"
    "coesim/pkg/observability"
    "coesim/pkg/protocol"
)

// Cloud is an unbounded compute sink: every task is served immediately and
// in parallel, taking workload / capacity seconds.
type Cloud struct {
    base
    processed uint64
}

// NewCloud creates the cloud node.
func NewCloud(env *Env, id, host uint32) *Cloud {
    return &Cloud{base: newBase(env, "cloud", id, host)}
}

// Start binds the task port.
func (c *Cloud) Start() error { return c.listen([]uint16{protocol.PortTask}, c.HandleMessage) }

// HandleMessage accepts tasks forwarded by the edge.
func (c *Cloud) HandleMessage(d network.Delivery) {
    if !c.accept(d) { return }
    if d.Envelope.Header.Type != protocol.MsgTask {
        c.anomaly(d, "unexpected message", nil)
        return
    }
    desc, ok := c.descriptor(d)
    if !ok { return }
    c.OnTaskReceived(desc)
}

// OnTaskReceived schedules the response after the processing delay.
func (c *Cloud) OnTaskReceived(d protocol.Descriptor) {
    now := c.now()
    d.UplinkArrivalAt = now
    dur := d.Serve(now, c.env.Sim.CloudCapacity)
    c.log.Debug("task accepted", zap.Stringer("task", d.TaskID), zap.Duration("processing", dur), observability.At(now))
    c.env.Sched.After(dur, func() {
        c.sendTask(protocol.MsgResult, c.addr(protocol.PortTask), d.RequesterAddr, &d)
        c.processed++
    })
}

// Processed returns how many tasks the cloud answered.
func (c *Cloud) Processed() uint64 { return c.processed }
