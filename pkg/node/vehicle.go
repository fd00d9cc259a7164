package node

import (
    "go.uber.org/zap"

    "coesim/pkg/geo"
    "coesim/pkg/network"
    "coesim/pkg/observability"
    "coesim/pkg/protocol"
    "coesim/pkg/queue"
    "coesim/pkg/sim"
)

// PositionFunc reports where a node is at a given time.
type PositionFunc func(at sim.Time) geo.Position

// Vehicle is a compute node with a small bounded queue. It advertises spare
// capacity to the edge with periodic beacons and answers requesters
// directly.
type Vehicle struct {
    base
    edge     protocol.Addr
    position PositionFunc
    queue    *queue.FIFO[*protocol.Descriptor]
    rng      *sim.Rand
    stats    VehicleStats
}

// VehicleStats counts a vehicle's activity.
type VehicleStats struct {
    Received  uint64
    Processed uint64
    Rejected  uint64
    Beacons   uint64
}

// NewVehicle creates vehicle id on host, beaconing to the edge beacon port.
func NewVehicle(env *Env, id, host uint32, edge protocol.Addr, position PositionFunc, rng *sim.Rand) *Vehicle {
    return &Vehicle{
        base:     newBase(env, "vehicle", id, host),
        edge:     edge,
        position: position,
        queue:    queue.New[*protocol.Descriptor](env.Sim.VehicleQueueLength),
        rng:      rng,
    }
}

// Start binds the task port and schedules the first periodic beacon one
// interval plus a small jitter after start.
func (v *Vehicle) Start() error {
    if err := v.listen([]uint16{protocol.PortTask}, v.HandleMessage); err != nil { return err }
    s := v.env.Sim
    v.env.Sched.After(s.BeaconInterval+v.rng.Uniform(s.StartJitterMin, s.StartJitterMax), func() { v.Beacon(true) })
    return nil
}

// Beacon advertises the vehicle if its queue has room. With selfResync the
// next periodic beacon is scheduled whether or not this one was sent.
func (v *Vehicle) Beacon(selfResync bool) {
    now := v.now()
    if v.queue.Len() < v.queue.Cap() {
        b := protocol.Beacon{
            VehicleID:       v.id,
            Position:        v.position(now),
            QueueOccupancy:  uint32(v.queue.Len()),
            QueueCapacity:   uint32(v.queue.Cap()),
            BeaconTimestamp: now,
        }
        flags := protocol.FlagFast
        if selfResync { flags = protocol.FlagResync }
        env, err := protocol.NewBeaconEnvelope(v.addr(protocol.PortBeacon), v.edge, &b, flags, v.env.Format, v.env.Codecs)
        if err != nil {
            v.log.Error("encode beacon", zap.Error(err))
        } else {
            v.send(v.addr(protocol.PortBeacon), v.edge, env)
            v.stats.Beacons++
            v.env.Metrics.BeaconSent()
            v.env.Sink.Record(observability.CatBeacon, now, "beacon",
                zap.Uint32("vehicle", v.id), zap.Stringer("position", b.Position),
                zap.Uint32("occupancy", b.QueueOccupancy), zap.Uint32("capacity", b.QueueCapacity),
                zap.Bool("periodic", selfResync))
        }
    }
    if selfResync {
        v.env.Sched.After(v.env.Sim.BeaconInterval, func() { v.Beacon(true) })
    }
}

// HandleMessage accepts tasks from the edge.
func (v *Vehicle) HandleMessage(d network.Delivery) {
    if !v.accept(d) { return }
    if d.Envelope.Header.Type != protocol.MsgTask {
        v.anomaly(d, "unexpected message", nil)
        return
    }
    desc, ok := v.descriptor(d)
    if !ok { return }
    v.OnTaskReceived(desc)
}

// OnTaskReceived queues a task, starting the drain loop on an empty queue
// and advertising the new occupancy shortly after otherwise. A task arriving
// at a full queue is dropped.
func (v *Vehicle) OnTaskReceived(d protocol.Descriptor) {
    now := v.now()
    d.UplinkArrivalAt = now
    v.stats.Received++
    t := &d
    v.env.Sink.Record(observability.CatVCCReceived, now, "received",
        append(observability.TaskFields(t), zap.Uint32("vehicle", v.id), zap.Int("occupancy", v.queue.Len()))...)

    switch {
    case v.queue.Empty():
        _ = v.queue.Push(t)
        v.DrainNext()
    case v.queue.Len() < v.queue.Cap():
        _ = v.queue.Push(t)
        v.env.Sched.After(v.env.Sim.FastBeaconDelay, func() { v.Beacon(false) })
    default:
        v.stats.Rejected++
        v.env.Metrics.Rejected("vehicle")
        v.env.Sink.Record(observability.CatVCCRejected, now, "rejected",
            append(observability.TaskFields(t),
                zap.Uint32("vehicle", v.id),
                zap.Int("occupancy", v.queue.Len()),
                zap.Int("capacity", v.queue.Cap()))...)
        v.log.Info("task rejected, queue full", zap.Stringer("task", d.TaskID), zap.Uint32("requester", d.RequesterID), observability.At(now))
    }
}

// DrainNext serves the queue head, answers the requester directly, then
// advertises the freed slot and moves on.
func (v *Vehicle) DrainNext() {
    head, ok := v.queue.Peek()
    if !ok { return }
    t := *head
    dur := t.Serve(v.now(), v.env.Sim.VehicleCapacity)
    v.env.Sched.After(dur, func() {
        t.FromVehicleToRequester = true
        v.sendTask(protocol.MsgResult, v.addr(protocol.PortTask), t.RequesterAddr, t)
        v.stats.Processed++
        _, _ = v.queue.Pop()
        v.Beacon(false)
        v.DrainNext()
    })
}

// QueueLen returns the number of queued tasks.
func (v *Vehicle) QueueLen() int { return v.queue.Len() }

// Stats returns the vehicle counters.
func (v *Vehicle) Stats() VehicleStats { return v.stats }
