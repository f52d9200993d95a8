// Package logging builds the process-wide zap logger.
package logging

import (
    "os"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the encoder, level and optional rotating file sink.
type Options struct {
    Production bool   // JSON encoder and sampling when true
    Level      string // debug, info, warn, error
    File       string // rotate into this file in addition to stdout
}

// New builds a logger from opts and installs it as the zap global so code
// without an injected logger (the queue consumer, startup helpers) can use
// zap.L().  The returned logger must be synced by the caller on shutdown.
func New(opts Options) (*zap.Logger, error) {
    var zc zap.Config
    if opts.Production {
        zc = zap.NewProductionConfig()
    } else {
        zc = zap.NewDevelopmentConfig()
    }
    zc.OutputPaths = []string{"stdout"}

    lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
    if opts.Level != "" {
        if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
            return nil, err
        }
    }
    zc.Level = lvl

    var logger *zap.Logger
    if opts.File != "" {
        rotator := &lumberjack.Logger{
            Filename:   opts.File,
            MaxSize:    64, // megabytes
            MaxBackups: 7,
            MaxAge:     7, // days
        }
        consoleEnc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
        if opts.Production {
            consoleEnc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
        }
        core := zapcore.NewTee(
            zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(rotator), lvl),
            zapcore.NewCore(consoleEnc, zapcore.AddSync(os.Stdout), lvl),
        )
        logger = zap.New(core, zap.AddCaller())
    } else {
        var err error
        logger, err = zc.Build(zap.AddCaller())
        if err != nil {
            return nil, err
        }
    }

    zap.ReplaceGlobals(logger)
    return logger, nil
}
