// Package logger builds the zap loggers used by the binaries.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger tagged with the service name.
// It falls back to a no-op logger if the configuration cannot be built.
func New(service string) *zap.SugaredLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]any{"service": service}

	return build(config)
}

// NewDevelopment returns a human readable logger at debug level.
func NewDevelopment(service string) *zap.SugaredLogger {
	config := zap.NewDevelopmentConfig()
	config.InitialFields = map[string]any{"service": service}

	return build(config)
}

func build(config zap.Config) *zap.SugaredLogger {
	log, err := config.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log.Sugar()
}
