package main

import "flag"

// Options holds CLI options for a simulation batch. Zero values leave the
// configured value untouched.
type Options struct {
    ConfigPath   string
    Strategy     string
    Seed         uint64
    Replications int
    Duration     string
    OutputDir    string
    LogLevel     string
}

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string) Options {
    fs := flag.NewFlagSet("coesim", flag.ExitOnError)
    var opts Options
    fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
    fs.StringVar(&opts.Strategy, "strategy", "", "Offloading strategy: Random, VCCFirst, EC_and_CC, VCC_and_CC")
    fs.Uint64Var(&opts.Seed, "seed", 0, "Seed of the first replication")
    fs.IntVar(&opts.Replications, "replications", 0, "Number of independent runs")
    fs.StringVar(&opts.Duration, "sim-time", "", "Simulated duration, e.g. 30s")
    fs.StringVar(&opts.OutputDir, "out", "", "Output directory for records, metrics and manifest")
    fs.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
    _ = fs.Parse(args)
    return opts
}
