// Package logging builds the structured logger used across commands.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Config selects the console level and the optional log file.
type Config struct {
	// Level is a zap level name (debug, info, warn, error).
	Level string
	// File enables a second core writing to this path.
	File string
	// Format of the file core: "json" (default) or "human".
	Format string
	// Console receives human-readable logs. Defaults to os.Stderr.
	Console io.Writer
}

// New builds a logger and a function releasing the log file.
func New(cfg Config) (*zap.Logger, func(), error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = "warn"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	closeFn := func() {}
	var cores []zapcore.Core

	console := cfg.Console
	colors := false
	if console == nil {
		console = os.Stderr
		colors = term.IsTerminal(int(os.Stderr.Fd()))
	}
	cores = append(cores, zapcore.NewCore(humanEncoder(colors), zapcore.AddSync(console), level))

	if cfg.File != "" {
		writer, cleanup, err := zap.Open(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		closeFn = func() {
			_ = writer.Sync() // ignore error
			cleanup()
		}
		var encoder zapcore.Encoder
		switch cfg.Format {
		case "human":
			encoder = humanEncoder(false)
		case "json", "":
			encoder = jsonEncoder()
		default:
			cleanup()
			return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
		}
		// The file keeps the full audit trail regardless of the console level.
		cores = append(cores, zapcore.NewCore(encoder, writer, zapcore.DebugLevel))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), closeFn, nil
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func humanEncoder(showColors bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	if showColors {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.StacktraceKey = ""
	cfg.CallerKey = ""
	return zapcore.NewConsoleEncoder(cfg)
}
