package observability

import (
    "time"

    "github.com/prometheus/client_golang/prometheus"

    "coesim/pkg/protocol"
)

// Metrics holds the counters of one run on its own registry, so concurrent
// replications never share series.
type Metrics struct {
    Registry *prometheus.Registry

    sent        prometheus.Counter
    dispatched  *prometheus.CounterVec
    completed   *prometheus.CounterVec
    rejected    *prometheus.CounterVec
    anomalies   *prometheus.CounterVec
    neighbors   *prometheus.CounterVec
    beacons     prometheus.Counter
    edgeQueue   prometheus.Gauge
    tableSize   prometheus.Gauge
    latency     *prometheus.HistogramVec
}

// NewMetrics registers the run collectors. labels are attached as constant
// labels to every series (for example strategy and replication).
func NewMetrics(labels prometheus.Labels) *Metrics {
    reg := prometheus.NewRegistry()
    f := func(o prometheus.Opts) prometheus.Opts {
        o.Namespace = "coesim"
        o.ConstLabels = labels
        return o
    }
    m := &Metrics{
        Registry: reg,
        sent: prometheus.NewCounter(prometheus.CounterOpts(f(prometheus.Opts{
            Name: "tasks_sent_total", Help: "Tasks generated by pedestrians.",
        }))),
        dispatched: prometheus.NewCounterVec(prometheus.CounterOpts(f(prometheus.Opts{
            Name: "tasks_dispatched_total", Help: "Tasks placed by the edge, by tier.",
        })), []string{"placement"}),
        completed: prometheus.NewCounterVec(prometheus.CounterOpts(f(prometheus.Opts{
            Name: "tasks_completed_total", Help: "Responses received by pedestrians, by tier.",
        })), []string{"placement"}),
        rejected: prometheus.NewCounterVec(prometheus.CounterOpts(f(prometheus.Opts{
            Name: "tasks_rejected_total", Help: "Tasks dropped because a queue was full.",
        })), []string{"tier"}),
        anomalies: prometheus.NewCounterVec(prometheus.CounterOpts(f(prometheus.Opts{
            Name: "protocol_anomalies_total", Help: "Frames dropped as malformed, by receiving node kind.",
        })), []string{"node", "reason"}),
        neighbors: prometheus.NewCounterVec(prometheus.CounterOpts(f(prometheus.Opts{
            Name: "neighbor_events_total", Help: "Neighbor table changes.",
        })), []string{"event"}),
        beacons: prometheus.NewCounter(prometheus.CounterOpts(f(prometheus.Opts{
            Name: "beacons_sent_total", Help: "Beacons emitted by vehicles.",
        }))),
        edgeQueue: prometheus.NewGauge(prometheus.GaugeOpts(f(prometheus.Opts{
            Name: "edge_queue_length", Help: "Tasks waiting or in service at the edge.",
        }))),
        tableSize: prometheus.NewGauge(prometheus.GaugeOpts(f(prometheus.Opts{
            Name: "neighbor_table_size", Help: "Vehicles currently in the neighbor table.",
        }))),
        latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
            Namespace:   "coesim",
            Name:        "task_latency_seconds",
            Help:        "Round-trip latency seen by the requester.",
            ConstLabels: labels,
            Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 16),
        }, []string{"placement"}),
    }
    reg.MustRegister(m.sent, m.dispatched, m.completed, m.rejected, m.anomalies, m.neighbors, m.beacons, m.edgeQueue, m.tableSize, m.latency)
    return m
}

func (m *Metrics) TaskSent() { m.sent.Inc() }

func (m *Metrics) Dispatched(p protocol.Placement) { m.dispatched.WithLabelValues(p.String()).Inc() }

func (m *Metrics) Completed(p protocol.Placement, rtt time.Duration) {
    m.completed.WithLabelValues(p.String()).Inc()
    m.latency.WithLabelValues(p.String()).Observe(rtt.Seconds())
}

func (m *Metrics) Rejected(tier string) { m.rejected.WithLabelValues(tier).Inc() }

func (m *Metrics) Anomaly(node, reason string) { m.anomalies.WithLabelValues(node, reason).Inc() }

func (m *Metrics) NeighborEvent(event string) { m.neighbors.WithLabelValues(event).Inc() }

func (m *Metrics) BeaconSent() { m.beacons.Inc() }

func (m *Metrics) EdgeQueue(n int) { m.edgeQueue.Set(float64(n)) }

func (m *Metrics) NeighborTable(n int) { m.tableSize.Set(float64(n)) }

// WriteTextfile exports the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
    return prometheus.WriteToTextfile(path, m.Registry)
}
