package scenario

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "runtime"
    "strconv"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/shirou/gopsutil/v3/cpu"
    "github.com/shirou/gopsutil/v3/host"
    "github.com/shirou/gopsutil/v3/mem"
    "go.uber.org/zap"
    "golang.org/x/sync/errgroup"
    "gopkg.in/yaml.v3"

    "coesim/pkg/config"
    "coesim/pkg/mobility"
    "coesim/pkg/observability"
)

// ManifestFile is written into the output directory after all replications.
const ManifestFile = "manifest.yaml"

// Manifest describes a batch of replications and their results.
type Manifest struct {
    App       string            `yaml:"app"`
    Generated time.Time         `yaml:"generated"`
    Wall      time.Duration     `yaml:"wall"`
    Host      HostInfo          `yaml:"host"`
    Sim       config.Simulation `yaml:"sim"`
    Runs      []Report          `yaml:"runs"`
    Aggregate Aggregate         `yaml:"aggregate"`
}

// HostInfo records the machine the batch ran on.
type HostInfo struct {
    Hostname    string `yaml:"hostname"`
    OS          string `yaml:"os"`
    Platform    string `yaml:"platform"`
    CPUs        int    `yaml:"cpus"`
    MemoryBytes uint64 `yaml:"memory_bytes"`
    Workers     int    `yaml:"workers"`
}

// hostFacts gathers host facts. Failures leave fields empty.
func hostFacts() HostInfo {
    hi := HostInfo{OS: runtime.GOOS, CPUs: runtime.NumCPU()}
    if n, err := cpu.Counts(true); err == nil && n > 0 { hi.CPUs = n }
    if info, err := host.Info(); err == nil {
        hi.Hostname = info.Hostname
        hi.Platform = info.Platform + " " + info.PlatformVersion
    }
    if vm, err := mem.VirtualMemory(); err == nil { hi.MemoryBytes = vm.Total }
    return hi
}

// RunDir is the output directory of replication rep.
func RunDir(base string, rep int) string { return filepath.Join(base, fmt.Sprintf("run-%d", rep)) }

// RunReplications executes cfg.Sim.Replications independent runs with seeds
// Seed, Seed+1, ... on at most one worker per logical CPU. Each run writes
// its records and metrics into its own directory; the manifest is written
// once all runs succeeded. The first failing run cancels the others.
func RunReplications(ctx context.Context, cfg *config.Config) (*Manifest, error) {
    start := time.Now()
    s := cfg.Sim
    var trace *mobility.Trace
    if s.MobilityTrace != "" {
        t, err := mobility.Load(s.MobilityTrace)
        if err != nil { return nil, fmt.Errorf("mobility trace: %w", err) }
        trace = t
    }
    if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil { return nil, fmt.Errorf("output dir: %w", err) }

    hi := hostFacts()
    hi.Workers = hi.CPUs
    if s.Replications < hi.Workers { hi.Workers = s.Replications }
    zap.L().Info("running replications",
        zap.Int("replications", s.Replications),
        zap.Int("workers", hi.Workers),
        zap.String("host", hi.Hostname),
        zap.Uint64("memory_bytes", hi.MemoryBytes))

    reports := make([]Report, s.Replications)
    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(hi.Workers)
    for i := 0; i < s.Replications; i++ {
        g.Go(func() error {
            r, err := RunOne(gctx, cfg, i, trace)
            if err != nil { return fmt.Errorf("replication %d: %w", i, err) }
            reports[i] = r
            return nil
        })
    }
    if err := g.Wait(); err != nil { return nil, err }

    m := &Manifest{
        App:       cfg.AppName,
        Generated: time.Now().UTC(),
        Wall:      time.Since(start),
        Host:      hi,
        Sim:       s,
        Runs:      reports,
        Aggregate: Combine(reports),
    }
    if err := WriteManifest(filepath.Join(cfg.Output.Dir, ManifestFile), m); err != nil { return nil, err }
    return m, nil
}

// RunOne builds and runs replication rep with seed Seed+rep.
func RunOne(ctx context.Context, cfg *config.Config, rep int, trace *mobility.Trace) (Report, error) {
    s := cfg.Sim
    seed := s.Seed + uint64(rep)
    dir := RunDir(cfg.Output.Dir, rep)
    if err := os.MkdirAll(dir, 0o755); err != nil { return Report{}, err }

    sink := observability.NopSink()
    if cfg.Output.Records {
        fs, err := observability.NewFileSink(dir, s.SimType, cfg.Output.Rotation, observability.ContextFromSim(s, rep, seed))
        if err != nil { return Report{}, err }
        sink = fs
    }
    defer func() { _ = sink.Close() }()
    metrics := observability.NewMetrics(prometheus.Labels{"strategy": s.Strategy, "replication": strconv.Itoa(rep)})

    sc, err := Build(s, rep, seed, Deps{Sink: sink, Metrics: metrics, Trace: trace})
    if err != nil { return Report{}, err }
    r, err := sc.Run(ctx)
    if err != nil { return Report{}, err }

    if cfg.Output.Metrics {
        if err := metrics.WriteTextfile(filepath.Join(dir, "metrics.prom")); err != nil { return Report{}, fmt.Errorf("metrics: %w", err) }
    }
    if err := sink.Close(); err != nil { return Report{}, fmt.Errorf("records: %w", err) }
    return r, nil
}

// WriteManifest stores m as YAML at path.
func WriteManifest(path string, m *Manifest) error {
    b, err := yaml.Marshal(m)
    if err != nil { return fmt.Errorf("encode manifest: %w", err) }
    if err := os.WriteFile(path, b, 0o644); err != nil { return fmt.Errorf("write manifest: %w", err) }
    return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
    b, err := os.ReadFile(path)
    if err != nil { return nil, err }
    var m Manifest
    if err := yaml.Unmarshal(b, &m); err != nil { return nil, fmt.Errorf("decode manifest: %w", err) }
    return &m, nil
}
