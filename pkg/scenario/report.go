package scenario

import (
    "math"
    "slices"
    "time"

    "coesim/pkg/network"
    "coesim/pkg/protocol"
)

// Report summarizes one replication.
type Report struct {
    Replication int           `yaml:"replication"`
    Seed        uint64        `yaml:"seed"`
    Strategy    string        `yaml:"strategy"`
    Duration    time.Duration `yaml:"sim_time"`
    Events      uint64        `yaml:"events"`

    Sent        uint64  `yaml:"sent"`
    Completed   uint64  `yaml:"completed"`
    Rejected    uint64  `yaml:"rejected"`
    Anomalies   uint64  `yaml:"anomalies"`
    Corrupt     uint64  `yaml:"corrupt"`
    FailureRate float64 `yaml:"failure_rate"`

    Beacons       uint64            `yaml:"beacons"`
    NeighborChurn map[string]uint64 `yaml:"neighbor_churn"`
    Passing       uint64            `yaml:"responses_passing_gnb"`

    Placements map[string]PlacementReport `yaml:"placements"`
    Network    NetworkReport              `yaml:"network"`
}

// PlacementReport is the outcome of the tasks placed on one tier.
type PlacementReport struct {
    Dispatched  uint64        `yaml:"dispatched"`
    Completed   uint64        `yaml:"completed"`
    MeanLatency time.Duration `yaml:"mean_latency"`
    P95Latency  time.Duration `yaml:"p95_latency"`
}

// NetworkReport mirrors network.Stats.
type NetworkReport struct {
    Sent       uint64 `yaml:"sent"`
    Delivered  uint64 `yaml:"delivered"`
    Corrupted  uint64 `yaml:"corrupted"`
    OutOfRange uint64 `yaml:"out_of_range"`
    Unclaimed  uint64 `yaml:"unclaimed"`
    Transited  uint64 `yaml:"transited"`
    Bytes      uint64 `yaml:"bytes"`
}

func networkReport(s network.Stats) NetworkReport {
    return NetworkReport(s)
}

// Report collects the counters of every node. It can be called at any point
// of a run.
func (sc *Scenario) Report() Report {
    r := Report{
        Replication:   sc.rep,
        Seed:          sc.seed,
        Strategy:      sc.cfg.Strategy,
        Duration:      sc.sched.Now().Sub(0),
        Events:        sc.sched.Fired(),
        Anomalies:     sc.env.Anomalies(),
        Corrupt:       sc.env.CorruptDrops(),
        NeighborChurn: make(map[string]uint64),
        Placements:    make(map[string]PlacementReport),
        Network:       networkReport(sc.net.Stats()),
    }

    es := sc.edge.Stats()
    r.Rejected = es.Rejected
    r.Passing = es.Passing
    for k, v := range es.Dwell { r.NeighborChurn[k] = v }
    for _, v := range sc.vehicles {
        vs := v.Stats()
        r.Rejected += vs.Rejected
        r.Beacons += vs.Beacons
    }

    latencies := make(map[protocol.Placement][]time.Duration)
    completed := make(map[protocol.Placement]uint64)
    for _, p := range sc.pedestrians {
        ps := p.Stats()
        r.Sent += ps.Sent
        for pl, n := range ps.Completed {
            completed[pl] += n
            r.Completed += n
        }
        for pl, l := range ps.Latencies { latencies[pl] = append(latencies[pl], l...) }
    }
    for _, pl := range protocol.Placements {
        mean, p95 := latencyStats(latencies[pl])
        r.Placements[pl.String()] = PlacementReport{
            Dispatched:  es.Dispatched[pl],
            Completed:   completed[pl],
            MeanLatency: mean,
            P95Latency:  p95,
        }
    }
    r.FailureRate = failureRate(r.Sent, r.Completed)
    return r
}

func failureRate(sent, completed uint64) float64 {
    if sent == 0 { return 0 }
    return 1 - float64(completed)/float64(sent)
}

// latencyStats returns the mean and the nearest-rank 95th percentile.
func latencyStats(l []time.Duration) (mean, p95 time.Duration) {
    if len(l) == 0 { return 0, 0 }
    sorted := slices.Clone(l)
    slices.Sort(sorted)
    var sum time.Duration
    for _, d := range sorted { sum += d }
    rank := int(math.Ceil(0.95*float64(len(sorted)))) - 1
    return sum / time.Duration(len(sorted)), sorted[rank]
}

// Aggregate combines the reports of all replications.
type Aggregate struct {
    Runs            int                        `yaml:"runs"`
    Sent            uint64                     `yaml:"sent"`
    Completed       uint64                     `yaml:"completed"`
    Rejected        uint64                     `yaml:"rejected"`
    Anomalies       uint64                     `yaml:"anomalies"`
    FailureRate     float64                    `yaml:"failure_rate"`
    MeanFailureRate float64                    `yaml:"mean_failure_rate"`
    Placements      map[string]PlacementReport `yaml:"placements"`
}

// Combine sums counters over runs. Latencies are averaged weighted by
// completed tasks; the p95 reported is the worst of the runs.
func Combine(reports []Report) Aggregate {
    a := Aggregate{Runs: len(reports), Placements: make(map[string]PlacementReport)}
    weighted := make(map[string]float64)
    for _, r := range reports {
        a.Sent += r.Sent
        a.Completed += r.Completed
        a.Rejected += r.Rejected
        a.Anomalies += r.Anomalies
        a.MeanFailureRate += r.FailureRate
        for name, p := range r.Placements {
            agg := a.Placements[name]
            agg.Dispatched += p.Dispatched
            agg.Completed += p.Completed
            if p.P95Latency > agg.P95Latency { agg.P95Latency = p.P95Latency }
            a.Placements[name] = agg
            weighted[name] += float64(p.MeanLatency) * float64(p.Completed)
        }
    }
    for name, agg := range a.Placements {
        if agg.Completed > 0 {
            agg.MeanLatency = time.Duration(weighted[name] / float64(agg.Completed))
            a.Placements[name] = agg
        }
    }
    if len(reports) > 0 { a.MeanFailureRate /= float64(len(reports)) }
    a.FailureRate = failureRate(a.Sent, a.Completed)
    return a
}
