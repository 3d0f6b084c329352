package config

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	VERBOSE
)

func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return ERROR
	case "warn":
		return WARN
	case "info":
		return INFO
	case "debug":
		return DEBUG
	case "verbose":
		return VERBOSE
	default:
		return INFO
	}
}

func (l LogLevel) String() string {
	switch l {
	case ERROR:
		return "error"
	case WARN:
		return "warn"
	case INFO:
		return "info"
	case DEBUG:
		return "debug"
	case VERBOSE:
		return "verbose"
	default:
		return "info"
	}
}

// ZapLevel maps the level onto zap; verbose and debug both become debug.
func (l LogLevel) ZapLevel() zapcore.Level {
	switch l {
	case ERROR:
		return zapcore.ErrorLevel
	case WARN:
		return zapcore.WarnLevel
	case DEBUG, VERBOSE:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds the process logger for the configured level.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level := INFO
	if cfg != nil {
		level = ParseLogLevel(cfg.LogLevel)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level.ZapLevel())
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.DisableStacktrace = level != VERBOSE
	return zc.Build()
}
