package observability

import (
    "errors"
    "fmt"
    "io"
    "path/filepath"
    "sync"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"

    "coesim/pkg/config"
    "coesim/pkg/protocol"
    "coesim/pkg/sim"
)

// Category names one append-only record stream of a run.
type Category string

const (
    CatSent            Category = "sent"
    CatEdgeDispatch    Category = "edge_dispatch"
    CatCloudDispatch   Category = "cloud_dispatch"
    CatVCCDispatch     Category = "vcc_dispatch"
    CatVCCReceived     Category = "vcc_received"
    CatVCCRejected     Category = "vcc_rejected_full_queue"
    CatEdgeRejected    Category = "edge_rejected_full_queue"
    CatBeacon          Category = "vcc_beacons"
    CatDwell           Category = "dwell_time"
    CatOffloading      Category = "offloading_time"
    CatResponsePassing Category = "response_passing_gnb"
    CatAnomaly         Category = "protocol_anomaly"
    CatCorrupt         Category = "corrupt_drop"
)

// Categories lists every record stream.
var Categories = []Category{
    CatSent, CatEdgeDispatch, CatCloudDispatch, CatVCCDispatch, CatVCCReceived, CatVCCRejected,
    CatEdgeRejected, CatBeacon, CatDwell, CatOffloading, CatResponsePassing, CatAnomaly, CatCorrupt,
}

// RunContext is attached to every record so files from different runs can
// be concatenated and still be told apart.
type RunContext struct {
    Replication        int
    Seed               uint64
    Strategy           string
    RequestRateMS      float64
    Vehicles           int
    Pedestrians        int
    EdgeCapacity       float64
    VehicleCapacity    float64
    Workload           float64
    VehicleQueueLength int
}

// ContextFromSim builds the run context of replication rep.
func ContextFromSim(s config.Simulation, rep int, seed uint64) RunContext {
    return RunContext{
        Replication:        rep,
        Seed:               seed,
        Strategy:           s.Strategy,
        RequestRateMS:      s.RequestRateMS,
        Vehicles:           s.Vehicles,
        Pedestrians:        s.Pedestrians,
        EdgeCapacity:       s.EdgeCapacity,
        VehicleCapacity:    s.VehicleCapacity,
        Workload:           s.Workload,
        VehicleQueueLength: s.VehicleQueueLength,
    }
}

func (rc RunContext) fields() []zap.Field {
    return []zap.Field{
        zap.Int("replication", rc.Replication),
        zap.Uint64("seed", rc.Seed),
        zap.String("strategy", rc.Strategy),
        zap.Float64("request_rate", rc.RequestRateMS),
        zap.Int("cars", rc.Vehicles),
        zap.Int("pedestrians", rc.Pedestrians),
        zap.Float64("edge_capacity", rc.EdgeCapacity),
        zap.Float64("car_capacity", rc.VehicleCapacity),
        zap.Float64("workload", rc.Workload),
        zap.Int("vehicle_queue_length", rc.VehicleQueueLength),
    }
}

// Sink writes simulation records, one JSON line per event, into one stream
// per category. It is safe for concurrent use.
type Sink struct {
    loggers map[Category]*zap.Logger
    closers []io.Closer
    once    sync.Once
}

// NewFileSink creates <dir>/<category>_<simType>.jsonl for every category.
func NewFileSink(dir, simType string, rot config.RotationConfig, rc RunContext) (*Sink, error) {
    s := &Sink{loggers: make(map[Category]*zap.Logger, len(Categories))}
    enc := zapcore.NewJSONEncoder(recordEncoderConfig())
    ctx := rc.fields()
    for _, cat := range Categories {
        path := filepath.Join(dir, fmt.Sprintf("%s_%s.jsonl", cat, simType))
        ws, c, err := fileSyncer(path, rot)
        if err != nil {
            _ = s.Close()
            return nil, fmt.Errorf("open %s: %w", path, err)
        }
        s.closers = append(s.closers, c)
        s.loggers[cat] = zap.New(zapcore.NewCore(enc, ws, zap.InfoLevel)).With(ctx...)
    }
    return s, nil
}

// NewCoreSink routes every category through core, tagging each record with
// a "category" field. Useful with zaptest/observer.
func NewCoreSink(core zapcore.Core, rc RunContext) *Sink {
    s := &Sink{loggers: make(map[Category]*zap.Logger, len(Categories))}
    base := zap.New(core).With(rc.fields()...)
    for _, cat := range Categories {
        s.loggers[cat] = base.With(zap.String("category", string(cat)))
    }
    return s
}

// NopSink discards every record.
func NopSink() *Sink { return NewCoreSink(zapcore.NewNopCore(), RunContext{}) }

// Record appends one event at simulated time at.
func (s *Sink) Record(cat Category, at sim.Time, event string, fields ...zap.Field) {
    l, ok := s.loggers[cat]
    if !ok { return }
    l.Info(event, append(fields, At(at))...)
}

// Close flushes and releases the record files.
func (s *Sink) Close() error {
    var errs []error
    s.once.Do(func() {
        for _, l := range s.loggers { _ = l.Sync() }
        for _, c := range s.closers {
            if c != nil { errs = append(errs, c.Close()) }
        }
    })
    return errors.Join(errs...)
}

func recordEncoderConfig() zapcore.EncoderConfig {
    return zapcore.EncoderConfig{
        MessageKey:     "event",
        LineEnding:     zapcore.DefaultLineEnding,
        EncodeDuration: zapcore.SecondsDurationEncoder,
    }
}

// TaskFields flattens a descriptor into record fields. Times are simulated
// seconds.
func TaskFields(d *protocol.Descriptor) []zap.Field {
    return []zap.Field{
        zap.Stringer("task_id", d.TaskID),
        zap.Uint32("requester_id", d.RequesterID),
        zap.Stringer("requester_addr", d.RequesterAddr),
        zap.Float64("task_workload", d.Workload),
        zap.Float64("created_at", d.CreatedAt.Seconds()),
        zap.Float64("completed_at", d.CompletedAt.Seconds()),
        zap.Float64("uplink_arrival_at", d.UplinkArrivalAt.Seconds()),
        zap.Float64("queueing_started_at", d.QueueingStartedAt.Seconds()),
        zap.Duration("processing", d.ProcessingDuration),
        zap.Stringer("placement", d.Placement),
        zap.Int8("where", int8(d.Placement)),
        zap.Uint32("cars_in_vcc", d.NeighborCountAtDispatch),
        zap.Bool("from_vehicle", d.FromVehicleToRequester),
    }
}
