package main

import (
    "testing"
    "time"

    "coesim/pkg/config"
)

func TestApplyOverrides(t *testing.T) {
    cfg := config.Default()
    opts := ParseFlags([]string{"-strategy", "ec_and_cc", "-seed", "7", "-replications", "3", "-sim-time", "90s", "-out", "/tmp/x"})
    if err := applyOverrides(cfg, opts); err != nil { t.Fatalf("overrides: %v", err) }
    if cfg.Sim.Strategy != "EC_and_CC" { t.Fatalf("strategy = %q", cfg.Sim.Strategy) }
    if cfg.Sim.Seed != 7 || cfg.Sim.Replications != 3 { t.Fatalf("seed/replications = %d/%d", cfg.Sim.Seed, cfg.Sim.Replications) }
    if cfg.Sim.Duration != 90*time.Second { t.Fatalf("duration = %s", cfg.Sim.Duration) }
    if cfg.Output.Dir != "/tmp/x" { t.Fatalf("output dir = %q", cfg.Output.Dir) }
}

func TestApplyOverridesRejectsBadValues(t *testing.T) {
    if err := applyOverrides(config.Default(), Options{Strategy: "Greedy"}); err == nil { t.Fatalf("expected strategy error") }
    if err := applyOverrides(config.Default(), Options{Duration: "soon"}); err == nil { t.Fatalf("expected duration error") }
}

func TestZeroFlagsKeepConfig(t *testing.T) {
    cfg := config.Default()
    want := cfg.Sim
    if err := applyOverrides(cfg, ParseFlags(nil)); err != nil { t.Fatalf("overrides: %v", err) }
    if cfg.Sim != want { t.Fatalf("config changed without flags") }
}
