package obs

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig selects the level, encoding and destination of the logger.
type LogConfig struct {
	Level  string
	Pretty bool
	// File redirects output away from stderr. The dashboard needs this
	// because the terminal belongs to the UI.
	File string
	App  string
	Env  string
	Ver  string
}

// NewLogger builds a zap logger tagged with service, env and version.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	var cfg zap.Config
	if c.Pretty {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	level := new(zapcore.Level)
	if err := level.Set(c.Level); err != nil {
		*level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(*level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		cfg.OutputPaths = []string{c.File}
		cfg.ErrorOutputPaths = []string{c.File}
	}

	l, err := cfg.Build(
		zap.Fields(
			zap.String("service", c.App),
			zap.String("env", c.Env),
			zap.String("version", c.Ver),
		),
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}
