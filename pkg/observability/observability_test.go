package observability

import (
    "bufio"
    "encoding/json"
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/testutil"
    "go.uber.org/zap"
    "go.uber.org/zap/zaptest/observer"

    "coesim/pkg/config"
    "coesim/pkg/protocol"
    "coesim/pkg/sim"
)

func TestCoreSinkTagsCategory(t *testing.T) {
    core, logs := observer.New(zap.InfoLevel)
    s := NewCoreSink(core, RunContext{Strategy: "VCCFirst", Vehicles: 3})
    d := protocol.NewDescriptor(uuid.New(), 4, 1028, sim.Time(time.Second))
    s.Record(CatVCCRejected, sim.Time(2*time.Second), "rejected", TaskFields(&d)...)

    got := logs.FilterField(zap.String("category", string(CatVCCRejected))).All()
    if len(got) != 1 { t.Fatalf("want 1 record, got %d", len(got)) }
    m := got[0].ContextMap()
    if m["requester_id"] != uint32(4) { t.Fatalf("requester_id = %v", m["requester_id"]) }
    if m["strategy"] != "VCCFirst" || m["cars"] != int64(3) { t.Fatalf("run context missing: %v", m) }
    if m["sim_time"] != 2.0 { t.Fatalf("sim_time = %v", m["sim_time"]) }
}

func TestFileSinkWritesJSONLines(t *testing.T) {
    dir := t.TempDir()
    s, err := NewFileSink(dir, "FirstConf", config.RotationConfig{}, RunContext{Seed: 9})
    if err != nil { t.Fatalf("sink: %v", err) }
    s.Record(CatSent, sim.Time(time.Millisecond), "sent", zap.Uint32("requester_id", 1))
    if err := s.Close(); err != nil { t.Fatalf("close: %v", err) }

    for _, cat := range Categories {
        if _, err := os.Stat(filepath.Join(dir, string(cat)+"_FirstConf.jsonl")); err != nil { t.Fatalf("missing %s: %v", cat, err) }
    }
    f, err := os.Open(filepath.Join(dir, "sent_FirstConf.jsonl"))
    if err != nil { t.Fatalf("open: %v", err) }
    defer f.Close()
    sc := bufio.NewScanner(f)
    if !sc.Scan() { t.Fatalf("empty record file") }
    var rec map[string]any
    if err := json.Unmarshal(sc.Bytes(), &rec); err != nil { t.Fatalf("decode: %v", err) }
    if rec["event"] != "sent" || rec["seed"] != float64(9) || rec["sim_time"] != 0.001 { t.Fatalf("unexpected record %v", rec) }
}

func TestMetricsCounters(t *testing.T) {
    m := NewMetrics(prometheus.Labels{"strategy": "Random"})
    m.TaskSent()
    m.TaskSent()
    m.Dispatched(protocol.PlacementCloud)
    m.Completed(protocol.PlacementCloud, 3*time.Millisecond)
    m.Rejected("vehicle")
    m.EdgeQueue(4)

    if v := testutil.ToFloat64(m.sent); v != 2 { t.Fatalf("sent = %v", v) }
    if v := testutil.ToFloat64(m.dispatched.WithLabelValues("cloud")); v != 1 { t.Fatalf("dispatched = %v", v) }
    if v := testutil.ToFloat64(m.rejected.WithLabelValues("vehicle")); v != 1 { t.Fatalf("rejected = %v", v) }
    if v := testutil.ToFloat64(m.edgeQueue); v != 4 { t.Fatalf("edge queue = %v", v) }
    if n := testutil.CollectAndCount(m.latency); n != 1 { t.Fatalf("latency series = %d", n) }

    path := filepath.Join(t.TempDir(), "metrics.prom")
    if err := m.WriteTextfile(path); err != nil { t.Fatalf("write: %v", err) }
    if fi, err := os.Stat(path); err != nil || fi.Size() == 0 { t.Fatalf("metrics file not written: %v", err) }
}

func TestSetupLoggerToFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "coesim.log")
    prev := zap.L()
    defer zap.ReplaceGlobals(prev)
    lg, err := SetupLogger(config.LogConfig{Level: "debug", Format: "json", Outputs: []string{path}})
    if err != nil { t.Fatalf("setup: %v", err) }
    NodeLogger("edge", 1).Info("hello", At(sim.Time(time.Second)))
    _ = lg.Sync()
    b, err := os.ReadFile(path)
    if err != nil || len(b) == 0 { t.Fatalf("log file empty: %v", err) }
    var rec map[string]any
    if err := json.Unmarshal(b[:len(b)-1], &rec); err != nil { t.Fatalf("decode: %v", err) }
    if rec["logger"] != "edge" || rec["node"] != float64(1) || rec["sim_time"] != 1.0 { t.Fatalf("unexpected log line %v", rec) }
}
