// Package logging builds the process logger: a zap core behind a log/slog front end, so call
// sites keep using slog while output format, level and destination come from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output string // stdout, stderr or a file path
}

// New returns a slog logger writing through zap, and a function that flushes and closes the output.
func New(opts Options) (*slog.Logger, func() error, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	ws, closeFn, err := output(opts.Output)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(encoder(opts.Format), ws, level)
	logger := slog.New(zapslog.NewHandler(core))

	cleanup := func() error {
		_ = ws.Sync()
		return closeFn()
	}

	return logger, cleanup, nil
}

// Setup builds the logger and installs it as the slog default.
func Setup(opts Options) (func() error, error) {
	logger, cleanup, err := New(opts)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)

	return cleanup, nil
}

func encoder(format string) zapcore.Encoder {
	if format == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "timestamp"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder

		return zapcore.NewJSONEncoder(cfg)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapcore.NewConsoleEncoder(cfg)
}

func output(path string) (zapcore.WriteSyncer, func() error, error) {
	noop := func() error { return nil }

	switch path {
	case "stdout":
		return zapcore.AddSync(os.Stdout), noop, nil
	case "stderr", "":
		return zapcore.AddSync(os.Stderr), noop, nil
	case "discard":
		return zapcore.AddSync(io.Discard), noop, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return zapcore.AddSync(f), f.Close, nil
}
