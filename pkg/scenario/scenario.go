// Package scenario assembles one simulated deployment (gNB with its edge
// dispatcher, the cloud, vehicles and pedestrians) and runs it.
package scenario

import (
    "context"
    "errors"
    "fmt"
    "time"

    "go.uber.org/zap"

    "coesim/pkg/config"
    "coesim/pkg/geo"
    "coesim/pkg/mobility"
    "coesim/pkg/network"
    "coesim/pkg/node"
    "coesim/pkg/observability"
    "coesim/pkg/protocol"
    "coesim/pkg/protocol/codec"
    "coesim/pkg/sim"
)

// cancelCheck is how often, in simulated time, a run looks at its context.
const cancelCheck = time.Second

// Deps are the per-run services supplied by the caller.
type Deps struct {
    Sink    *observability.Sink
    Metrics *observability.Metrics
    // Trace is optional; vehicles without a track sit at the gNB
    Trace *mobility.Trace
}

// Scenario is one fully wired simulation. It is single-threaded; run
// several Scenarios concurrently for replications.
type Scenario struct {
    cfg         config.Simulation
    rep         int
    seed        uint64
    sched       *sim.Scheduler
    net         *network.Fabric
    env         *node.Env
    edge        *node.Edge
    cloud       *node.Cloud
    vehicles    []*node.Vehicle
    pedestrians []*node.Pedestrian
    positions   map[uint32]node.PositionFunc
    log         *zap.Logger
}

// Build creates the topology of replication rep. Node ids follow the trace
// convention: vehicles are 0..V-1, then the edge, the cloud and the
// pedestrians. Pedestrians take the first UE addresses, vehicles the next.
func Build(s config.Simulation, rep int, seed uint64, deps Deps) (*Scenario, error) {
    if err := s.Validate(); err != nil { return nil, fmt.Errorf("scenario: %w", err) }
    if deps.Sink == nil || deps.Metrics == nil { return nil, errors.New("scenario: sink and metrics are required") }
    strategy, err := node.ParseStrategy(s.Strategy)
    if err != nil { return nil, err }
    format, err := protocol.ParseFormat(s.WireFormat)
    if err != nil { return nil, err }
    reg, err := codec.DefaultRegistry()
    if err != nil { return nil, fmt.Errorf("codecs: %w", err) }

    sched := sim.NewScheduler()
    net := network.New(sched, sim.NewRand(seed, "net"), s.Links)
    sc := &Scenario{
        cfg:       s,
        rep:       rep,
        seed:      seed,
        sched:     sched,
        net:       net,
        positions: make(map[uint32]node.PositionFunc),
        log:       zap.L().Named("scenario").With(zap.Int("replication", rep), zap.Uint64("seed", seed)),
    }
    sc.env = &node.Env{
        Sched:   sched,
        Net:     net,
        Sink:    deps.Sink,
        Metrics: deps.Metrics,
        Codecs:  reg,
        Format:  format,
        Sim:     s,
    }
    if err := sc.env.Validate(); err != nil { return nil, err }

    if err := net.AddHost(network.GatewayHost, network.RoleGateway); err != nil { return nil, err }
    if err := net.AddHost(network.CloudHost, network.RoleCloud); err != nil { return nil, err }

    vehicles := uint32(s.Vehicles)
    edgeID, cloudID := vehicles, vehicles+1
    taskPort := protocol.HostAddr(network.GatewayHost, protocol.PortTask)
    beaconPort := protocol.HostAddr(network.GatewayHost, protocol.PortBeacon)

    sc.edge = node.NewEdge(sc.env, edgeID, network.GatewayHost, protocol.HostAddr(network.CloudHost, protocol.PortTask),
        s.GNB, strategy, sim.NewRand(seed, "edge"))
    sc.cloud = node.NewCloud(sc.env, cloudID, network.CloudHost)

    for i := 0; i < s.Pedestrians; i++ {
        host := network.UEHost(i)
        if err := net.AddHost(host, network.RoleRadio); err != nil { return nil, err }
        pos := geo.Position{X: s.GNB.X - s.PedestrianDistance, Y: s.GNB.Y + 0.01*float64(i), Z: s.GNB.Z}
        sc.positions[host] = func(sim.Time) geo.Position { return pos }
        id := vehicles + 2 + uint32(i)
        sc.pedestrians = append(sc.pedestrians,
            node.NewPedestrian(sc.env, id, host, taskPort, pos, sim.NewRand(seed, fmt.Sprintf("pedestrian/%d", i))))
    }
    for i := 0; i < s.Vehicles; i++ {
        host := network.UEHost(s.Pedestrians + i)
        if err := net.AddHost(host, network.RoleRadio); err != nil { return nil, err }
        pos := vehiclePosition(deps.Trace, i, s.GNB)
        sc.positions[host] = pos
        sc.vehicles = append(sc.vehicles,
            node.NewVehicle(sc.env, uint32(i), host, beaconPort, pos, sim.NewRand(seed, fmt.Sprintf("vehicle/%d", i))))
    }
    if s.CoverageRadius > 0 {
        net.SetCoverage(func(host uint32, at sim.Time) bool {
            pos, ok := sc.positions[host]
            return !ok || pos(at).Distance(s.GNB) <= s.CoverageRadius
        })
    }
    return sc, nil
}

func vehiclePosition(tr *mobility.Trace, id int, gnb geo.Position) node.PositionFunc {
    if tr == nil || !tr.Has(id) {
        return func(sim.Time) geo.Position { return gnb }
    }
    return func(at sim.Time) geo.Position {
        p, _ := tr.Position(id, at)
        return p
    }
}

// Run starts every application and executes events until the configured
// duration is reached or ctx is cancelled.
func (sc *Scenario) Run(ctx context.Context) (Report, error) {
    apps := []node.Application{sc.edge, sc.cloud}
    for _, v := range sc.vehicles { apps = append(apps, v) }
    for _, p := range sc.pedestrians { apps = append(apps, p) }
    for _, a := range apps {
        if err := a.Start(); err != nil { return Report{}, fmt.Errorf("start: %w", err) }
    }

    var check func()
    check = func() {
        if ctx.Err() != nil {
            sc.sched.Stop()
            return
        }
        sc.sched.After(cancelCheck, check)
    }
    sc.sched.After(cancelCheck, check)

    start := time.Now()
    sc.log.Info("simulation started",
        zap.String("strategy", sc.cfg.Strategy),
        zap.Int("vehicles", len(sc.vehicles)),
        zap.Int("pedestrians", len(sc.pedestrians)),
        zap.Duration("sim_time", sc.cfg.Duration))
    sc.sched.Run(sim.Time(sc.cfg.Duration))
    if err := ctx.Err(); err != nil { return Report{}, err }

    r := sc.Report()
    sc.log.Info("simulation finished",
        zap.Uint64("events", sc.sched.Fired()),
        zap.Duration("wall", time.Since(start)),
        zap.Uint64("sent", r.Sent),
        zap.Uint64("completed", r.Completed),
        zap.Float64("failure_rate", r.FailureRate))
    return r, nil
}

// Edge exposes the dispatcher for inspection.
func (sc *Scenario) Edge() *node.Edge { return sc.edge }

// Vehicles exposes the vehicles for inspection.
func (sc *Scenario) Vehicles() []*node.Vehicle { return sc.vehicles }

// Pedestrians exposes the task sources for inspection.
func (sc *Scenario) Pedestrians() []*node.Pedestrian { return sc.pedestrians }
