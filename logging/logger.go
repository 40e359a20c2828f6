package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger for the given environment. "local" logs everything at
// debug level in a human friendly format, "development" uses the development
// config and anything else gets the JSON production logger.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	case "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		return cfg.Build()
	case "production", "":
		return zap.NewProduction()
	default:
		return nil, fmt.Errorf("unknown logging environment %q", env)
	}
}

// Or returns l when it is set and the global sugared logger otherwise.
func Or(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l != nil {
		return l
	}
	return zap.S()
}
