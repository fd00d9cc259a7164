// Package observability contains logging setup, the per-category event
// records of a simulation run and its metrics.
package observability

import (
    "io"
    "os"
    "path/filepath"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "gopkg.in/natefinch/lumberjack.v2"

    "coesim/pkg/config"
    "coesim/pkg/sim"
)

// SetupLogger builds a zap.Logger from the provided configuration, sets it as
// the global logger, and redirects the stdlib log package. The caller should
// defer logger.Sync().
func SetupLogger(c config.LogConfig) (*zap.Logger, error) {
    level := zap.NewAtomicLevel()
    switch strings.ToLower(c.Level) {
    case "debug":
        level.SetLevel(zap.DebugLevel)
    case "warn", "warning":
        level.SetLevel(zap.WarnLevel)
    case "error":
        level.SetLevel(zap.ErrorLevel)
    default:
        level.SetLevel(zap.InfoLevel)
    }

    encCfg := defaultEncoderConfig(c.Development)
    var encoder zapcore.Encoder
    if strings.ToLower(c.Format) == "json" {
        encoder = zapcore.NewJSONEncoder(encCfg)
    } else {
        encoder = zapcore.NewConsoleEncoder(encCfg)
    }

    var cores []zapcore.Core
    for _, out := range c.Outputs {
        switch strings.ToLower(out) {
        case "stdout":
            cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
        case "stderr":
            cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level))
        default:
            filename := out
            if c.Rotation.Enable && strings.TrimSpace(c.Rotation.Filename) != "" {
                filename = c.Rotation.Filename
            }
            ws, _, err := fileSyncer(filename, c.Rotation)
            if err != nil {
                // fallback to stderr on failure
                ws = zapcore.AddSync(os.Stderr)
            }
            cores = append(cores, zapcore.NewCore(encoder, ws, level))
        }
    }

    core := zapcore.NewTee(cores...)
    opts := []zap.Option{
        zap.AddCaller(),
        zap.AddStacktrace(zap.ErrorLevel),
    }
    if c.Development {
        opts = append(opts, zap.Development())
    }

    logger := zap.New(core, opts...)
    zap.ReplaceGlobals(logger)
    // redirect stdlib log to zap at Info level
    _, _ = zap.RedirectStdLogAt(logger, zap.InfoLevel)
    return logger, nil
}

// NodeLogger returns the global logger scoped to one simulated node.
func NodeLogger(kind string, id uint32) *zap.Logger {
    return zap.L().Named(kind).With(zap.Uint32("node", id))
}

// At is the field carrying the simulated time of a log line.
func At(t sim.Time) zap.Field { return zap.Float64("sim_time", t.Seconds()) }

func defaultEncoderConfig(dev bool) zapcore.EncoderConfig {
    if dev {
        cfg := zap.NewDevelopmentEncoderConfig()
        cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
        return cfg
    }
    return zap.NewProductionEncoderConfig()
}

// fileSyncer opens path for appending, through lumberjack when rotation is
// enabled. The closer releases the underlying file.
func fileSyncer(path string, r config.RotationConfig) (zapcore.WriteSyncer, io.Closer, error) {
    if dir := filepath.Dir(path); dir != "." && dir != "" {
        if err := os.MkdirAll(dir, 0o755); err != nil { return nil, nil, err }
    }
    if r.Enable {
        lj := &lumberjack.Logger{
            Filename:   path,
            MaxSize:    max(r.MaxSizeMB, 10),
            MaxBackups: max(r.MaxBackups, 1),
            MaxAge:     max(r.MaxAgeDays, 7),
            Compress:   r.Compress,
        }
        return zapcore.AddSync(lj), lj, nil
    }
    f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil { return nil, nil, err }
    return zapcore.Lock(f), f, nil
}
