package main

import (
    "context"
    "fmt"
    "os"
    "os/signal"
    "path/filepath"
    "syscall"
    "time"

    "go.uber.org/zap"

    "coesim/pkg/config"
    "coesim/pkg/observability"
    "coesim/pkg/scenario"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
        return 1
    }
    if err := applyOverrides(cfg, opts); err != nil {
        _, _ = os.Stderr.WriteString("invalid flags: " + err.Error() + "\n")
        return 1
    }

    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
        return 1
    }
    defer func() { _ = logger.Sync() }()

    zap.L().Info("coesim started", zap.String("app", cfg.AppName))
    zap.L().Info("effective configuration", zap.Any("sim", cfg.Sim), zap.String("output", cfg.Output.Dir))

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    m, err := scenario.RunReplications(ctx, cfg)
    if err != nil {
        zap.L().Error("simulation failed", zap.Error(err))
        return 1
    }
    a := m.Aggregate
    zap.L().Info("simulation batch finished",
        zap.Int("runs", a.Runs),
        zap.Uint64("sent", a.Sent),
        zap.Uint64("completed", a.Completed),
        zap.Uint64("rejected", a.Rejected),
        zap.Float64("failure_rate", a.FailureRate),
        zap.Duration("wall", m.Wall),
        zap.String("manifest", filepath.Join(cfg.Output.Dir, scenario.ManifestFile)))
    for name, p := range a.Placements {
        zap.L().Info("placement",
            zap.String("tier", name),
            zap.Uint64("dispatched", p.Dispatched),
            zap.Uint64("completed", p.Completed),
            zap.Duration("mean_latency", p.MeanLatency),
            zap.Duration("p95_latency", p.P95Latency))
    }
    return 0
}

// applyOverrides copies non-zero flags over the loaded configuration and
// validates the result again.
func applyOverrides(cfg *config.Config, opts Options) error {
    if opts.Strategy != "" { cfg.Sim.Strategy = opts.Strategy }
    if opts.Seed != 0 { cfg.Sim.Seed = opts.Seed }
    if opts.Replications != 0 { cfg.Sim.Replications = opts.Replications }
    if opts.Duration != "" {
        d, err := time.ParseDuration(opts.Duration)
        if err != nil { return fmt.Errorf("sim-time: %w", err) }
        cfg.Sim.Duration = d
    }
    if opts.OutputDir != "" { cfg.Output.Dir = opts.OutputDir }
    if opts.LogLevel != "" { cfg.Log.Level = opts.LogLevel }
    return cfg.Sim.Validate()
}
