package node

import (
    "go.uber.org/zap"

    "coesim/pkg/geo"
    "coesim/pkg/neighbors"
    "coesim/pkg/network"
    "coesim/pkg/observability"
    "coesim/pkg/protocol"
    "coesim/pkg/queue"
    "coesim/pkg/sim"
)

// TaskState is the lifecycle of a task inside the edge node.
type TaskState int

const (
    TaskReceived TaskState = iota
    TaskEdgeQueued
    TaskEdgeProcessing
    TaskForwarded
    TaskCloudForwarded
    TaskVehicleForwarded
)

func (s TaskState) String() string {
    switch s {
    case TaskReceived:
        return "received"
    case TaskEdgeQueued:
        return "edge_queued"
    case TaskEdgeProcessing:
        return "edge_processing"
    case TaskForwarded:
        return "forwarded"
    case TaskCloudForwarded:
        return "cloud_forwarded"
    case TaskVehicleForwarded:
        return "vehicle_forwarded"
    default:
        return "unknown"
    }
}

// Dwell reasons recorded when a vehicle leaves the neighbor table.
const (
    DwellRange        = "range"
    DwellResourceless = "resourceless"
    DwellUsed         = "used"
)

// Edge is the dispatcher co-located with the gNB. It owns the neighbor
// table, the edge work queue and the placement policy.
type Edge struct {
    base
    cloud    protocol.Addr
    position geo.Position
    strategy Strategy
    table    *neighbors.Table
    queue    *queue.FIFO[*protocol.Descriptor]
    rng      *sim.Rand
    stats    EdgeStats
}

// EdgeStats counts the edge's decisions.
type EdgeStats struct {
    Received   uint64
    Dispatched map[protocol.Placement]uint64
    Processed  uint64
    Rejected   uint64
    Beacons    uint64
    Dwell      map[string]uint64
    Passing    uint64
}

// NewEdge creates the dispatcher. rng drives the policy and neighbor choice.
func NewEdge(env *Env, id, host uint32, cloud protocol.Addr, pos geo.Position, strategy Strategy, rng *sim.Rand) *Edge {
    return &Edge{
        base:     newBase(env, "edge", id, host),
        cloud:    cloud,
        position: pos,
        strategy: strategy,
        table:    neighbors.New(),
        queue:    queue.New[*protocol.Descriptor](env.Sim.EdgeQueueCapacity),
        rng:      rng,
        stats: EdgeStats{
            Dispatched: make(map[protocol.Placement]uint64),
            Dwell:      make(map[string]uint64),
        },
    }
}

// Start binds the task and beacon ports, taps transit traffic and starts
// the staleness sweep.
func (e *Edge) Start() error {
    if err := e.listen([]uint16{protocol.PortTask, protocol.PortBeacon}, e.HandleMessage); err != nil { return err }
    e.env.Net.Tap(e.onTransit)
    e.env.Sched.After(e.env.Sim.SweepInterval, e.sweep)
    e.log.Debug("edge started", zap.Stringer("strategy", e.strategy), zap.Stringer("cloud", e.cloud))
    return nil
}

// HandleMessage demultiplexes task requests and beacons.
func (e *Edge) HandleMessage(d network.Delivery) {
    if !e.accept(d) { return }
    switch d.To.Port {
    case protocol.PortTask:
        if d.Envelope.Header.Type != protocol.MsgTask {
            e.anomaly(d, "unexpected message", nil)
            return
        }
        desc, ok := e.descriptor(d)
        if !ok { return }
        e.OnRequestReceived(desc, d.From)
    case protocol.PortBeacon:
        b, err := protocol.BeaconOf(&d.Envelope, e.env.Codecs)
        if err != nil {
            e.anomaly(d, "malformed beacon", err)
            return
        }
        e.OnBeacon(b, d.From)
    }
}

// OnRequestReceived enriches the descriptor with the requester address and
// the current neighbor count, then places the task.
func (e *Edge) OnRequestReceived(d protocol.Descriptor, source protocol.Addr) {
    d.RequesterAddr = source
    d.NeighborCountAtDispatch = uint32(e.table.Len())
    e.stats.Received++
    e.transition(&d, TaskReceived)

    switch e.strategy.decide(e.availability(), e.rng.IntRange) {
    case protocol.PlacementEdge:
        e.dispatchEdge(d)
    case protocol.PlacementVehicle:
        e.dispatchVehicle(d)
    default:
        e.dispatchCloud(d)
    }
}

func (e *Edge) availability() availability {
    return availability{edgeQueueLen: e.queue.Len(), edgeQueueCap: e.queue.Cap(), neighbors: e.table.Len()}
}

func (e *Edge) place(d *protocol.Descriptor, p protocol.Placement) bool {
    if err := d.Place(p); err != nil {
        e.log.Error("placement", zap.Error(err), zap.Stringer("task", d.TaskID))
        return false
    }
    e.stats.Dispatched[p]++
    e.env.Metrics.Dispatched(p)
    return true
}

func (e *Edge) dispatchEdge(d protocol.Descriptor) {
    now := e.now()
    d.UplinkArrivalAt = now
    if e.queue.Full() {
        e.reject(&d)
        return
    }
    if !e.place(&d, protocol.PlacementEdge) { return }
    t := &d
    wasEmpty := e.queue.Empty()
    if err := e.queue.Push(t); err != nil {
        e.log.Error("edge queue", zap.Error(err), zap.Stringer("task", d.TaskID), observability.At(now))
        return
    }
    e.env.Metrics.EdgeQueue(e.queue.Len())
    e.env.Sink.Record(observability.CatEdgeDispatch, now, "dispatched to edge", append(observability.TaskFields(t), zap.Int("queue_len", e.queue.Len()))...)
    e.transition(t, TaskEdgeQueued)
    if wasEmpty { e.DrainNext() }
}

// reject drops a task the edge queue has no room for.
func (e *Edge) reject(d *protocol.Descriptor) {
    e.stats.Rejected++
    e.env.Metrics.Rejected("edge")
    e.env.Sink.Record(observability.CatEdgeRejected, e.now(), "rejected",
        append(observability.TaskFields(d), zap.Int("occupancy", e.queue.Len()), zap.Int("capacity", e.queue.Cap()))...)
    e.log.Warn("edge queue full", zap.Stringer("task", d.TaskID), observability.At(e.now()))
}

// DrainNext serves the head of the edge queue. The loop continues until the
// queue is empty; it is started by an enqueue into an empty queue.
func (e *Edge) DrainNext() {
    head, ok := e.queue.Peek()
    if !ok { return }
    t := *head
    dur := t.Serve(e.now(), e.env.Sim.EdgeCapacity)
    e.transition(t, TaskEdgeProcessing)
    e.env.Sched.After(dur, func() {
        e.sendTask(protocol.MsgResult, e.addr(protocol.PortTask), t.RequesterAddr, t)
        e.transition(t, TaskForwarded)
        e.stats.Processed++
        _, _ = e.queue.Pop()
        e.env.Metrics.EdgeQueue(e.queue.Len())
        e.DrainNext()
    })
}

func (e *Edge) dispatchCloud(d protocol.Descriptor) {
    if !e.place(&d, protocol.PlacementCloud) { return }
    e.sendTask(protocol.MsgTask, e.addr(protocol.PortTask), e.cloud, &d)
    e.env.Sink.Record(observability.CatCloudDispatch, e.now(), "dispatched to cloud", observability.TaskFields(&d)...)
    e.transition(&d, TaskCloudForwarded)
}

func (e *Edge) dispatchVehicle(d protocol.Descriptor) {
    n, ok := e.table.Pick(e.rng.Intn)
    if !ok {
        e.dispatchCloud(d)
        return
    }
    if !e.place(&d, protocol.PlacementVehicle) { return }
    now := e.now()
    e.sendTask(protocol.MsgTask, e.addr(protocol.PortTask), n.Addr, &d)
    e.table.Remove(n.Key())
    e.env.Metrics.NeighborTable(e.table.Len())
    e.env.Sink.Record(observability.CatVCCDispatch, now, "dispatched to vehicle",
        append(observability.TaskFields(&d), zap.Uint32("vehicle", n.VehicleID), zap.Stringer("vehicle_addr", n.Addr))...)
    e.dwellOut(n, DwellUsed)
    e.transition(&d, TaskVehicleForwarded)
}

// OnBeacon maintains the neighbor table: a vehicle with room is added or
// refreshed, a full one is removed.
func (e *Edge) OnBeacon(b protocol.Beacon, from protocol.Addr) {
    e.stats.Beacons++
    now := e.now()
    entry := neighbors.Entry{
        VehicleID:    b.VehicleID,
        Addr:         from.WithPort(protocol.PortTask),
        LastBeaconAt: now,
        Position:     b.Position,
    }
    if b.HasRoom() {
        if e.table.Upsert(entry) {
            e.stats.Dwell["in"]++
            e.env.Metrics.NeighborEvent("added")
            e.env.Sink.Record(observability.CatDwell, now, "IN",
                zap.Uint32("vehicle", b.VehicleID), zap.Stringer("vehicle_addr", entry.Addr),
                zap.Stringer("position", b.Position), zap.Float64("distance", b.Position.Distance(e.position)))
        }
    } else if old, ok := e.table.Remove(entry.Key()); ok {
        e.dwellOut(old, DwellResourceless)
    }
    e.env.Metrics.NeighborTable(e.table.Len())
}

func (e *Edge) sweep() {
    now := e.now()
    for _, n := range e.table.Sweep(now, e.env.Sim.NeighborStaleness) {
        e.dwellOut(n, DwellRange)
    }
    e.env.Metrics.NeighborTable(e.table.Len())
    e.env.Sched.After(e.env.Sim.SweepInterval, e.sweep)
}

func (e *Edge) dwellOut(n neighbors.Entry, reason string) {
    now := e.now()
    e.stats.Dwell[reason]++
    e.env.Metrics.NeighborEvent(reason)
    e.env.Sink.Record(observability.CatDwell, now, "OUT",
        zap.Uint32("vehicle", n.VehicleID), zap.Stringer("vehicle_addr", n.Addr),
        zap.String("reason", reason), zap.Duration("dwell", now.Sub(n.FirstSeenAt)),
        zap.Float64("last_beacon_at", n.LastBeaconAt.Seconds()))
}

// onTransit records vehicle responses passing through the gNB on their way
// to the requester. Routing is unaffected. Only frames flagged as coming
// from a vehicle are decoded.
func (e *Edge) onTransit(d network.Delivery) {
    if d.Corrupt || d.Envelope.Header.Type != protocol.MsgResult || !d.Envelope.HasFlag(protocol.FlagFromVehicle) { return }
    desc, err := protocol.DescriptorOf(&d.Envelope, e.env.Codecs)
    if err != nil { return }
    e.stats.Passing++
    e.env.Sink.Record(observability.CatResponsePassing, e.now(), "response passing",
        append(observability.TaskFields(&desc), zap.Stringer("from", d.From), zap.Stringer("to", d.To))...)
}

func (e *Edge) transition(d *protocol.Descriptor, s TaskState) {
    if ce := e.log.Check(zap.DebugLevel, "task state"); ce != nil {
        ce.Write(zap.Stringer("task", d.TaskID), zap.Stringer("state", s), zap.Stringer("placement", d.Placement), observability.At(e.now()))
    }
}

// Neighbors exposes the neighbor table for inspection.
func (e *Edge) Neighbors() *neighbors.Table { return e.table }

// QueueLen returns the number of tasks waiting or in service at the edge.
func (e *Edge) QueueLen() int { return e.queue.Len() }

// Stats returns the edge counters.
func (e *Edge) Stats() EdgeStats { return e.stats }
