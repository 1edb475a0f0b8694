package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Defaults applied by New for zero-value Config fields.
const (
	DefaultFormat = "json"
	DefaultLevel  = "info"
)

var (
	// ErrInvalidFormat indicates an unrecognized encoder format.
	ErrInvalidFormat = errors.New("unrecognized log format")

	// ErrInvalidLevel indicates an unsupported log level.
	ErrInvalidLevel = errors.New("unsupported log level")
)

// Config controls the encoder, level and destination of a root logger.
type Config struct {
	// Format is one of json, console, auto or logfmt.
	Format string

	// Level is one of debug, info, warn, error, panic or fatal.
	Level string

	// Writer receives encoded entries. If nil, os.Stderr is used.
	Writer io.Writer
}

// New builds a root logger for applications embedding the client.
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Level == "" {
		cfg.Level = DefaultLevel
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format("2006-01-02T15:04:05.000000Z07:00"))
	}
	encCfg.LevelKey = "lvl"

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "auto", "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "logfmt":
		enc = zaplogfmt.NewEncoder(encCfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Format)
	}

	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	return zap.New(zapcore.NewCore(
		enc,
		zapcore.AddSync(cfg.Writer),
		lvl,
	)), nil
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "panic":
		return zap.PanicLevel, nil
	case "fatal":
		return zap.FatalLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "info":
		return zap.InfoLevel, nil
	case "debug":
		return zap.DebugLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, level)
	}
}
