// Package config provides YAML-based configuration loading for coesim.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName optional logical name used in logs and manifests
    AppName string `mapstructure:"app_name"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // Sim holds the scenario parameters of one simulation run
    Sim Simulation `mapstructure:"sim"`

    // Output controls where records, metrics and manifests go
    Output OutputConfig `mapstructure:"output"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// OutputConfig selects the run artefacts.
type OutputConfig struct {
    // Dir is the base directory; each replication writes into Dir/run-<i>
    Dir string `mapstructure:"dir"`
    // Records enables the per-category JSON-lines event files
    Records bool `mapstructure:"records"`
    // Metrics enables the prometheus text-file export
    Metrics bool `mapstructure:"metrics"`
    // Rotation applies to record files
    Rotation RotationConfig `mapstructure:"rotation"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "coesim",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stdout"},
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/coesim.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Sim: DefaultSimulation(),
        Output: OutputConfig{
            Dir:     "./results",
            Records: true,
            Metrics: true,
            Rotation: RotationConfig{
                Enable:     false,
                MaxSizeMB:  200,
                MaxBackups: 2,
                MaxAgeDays: 28,
            },
        },
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix COESIM and `.`/`-` are replaced with `_`.
// Example: COESIM_SIM_CHOSEN_STRATEGY=VCCFirst
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("COESIM")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    v.SetDefault("output.dir", cfg.Output.Dir)
    v.SetDefault("output.records", cfg.Output.Records)
    v.SetDefault("output.metrics", cfg.Output.Metrics)
    v.SetDefault("output.rotation.enable", cfg.Output.Rotation.Enable)
    v.SetDefault("output.rotation.max_size_mb", cfg.Output.Rotation.MaxSizeMB)
    v.SetDefault("output.rotation.max_backups", cfg.Output.Rotation.MaxBackups)
    v.SetDefault("output.rotation.max_age_days", cfg.Output.Rotation.MaxAgeDays)
    seedSimulationDefaults(v, cfg.Sim)

    // Choose config file
    if path == "" {
        // Allow override via env var
        if envPath := os.Getenv("COESIM_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        // Search common locations with base name `coesim`
        v.SetConfigName("coesim")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".coesim"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var viperConfigFileNotFound viper.ConfigFileNotFoundError
        if !errors.As(err, &viperConfigFileNotFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stdout"}
    }
    if strings.TrimSpace(c.Output.Dir) == "" {
        c.Output.Dir = "./results"
    }
    if err := c.Sim.Validate(); err != nil {
        return fmt.Errorf("sim: %w", err)
    }
    return nil
}
