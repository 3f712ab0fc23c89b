package logging

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/edvin/charmdeploy/internal/config"
)

// NewLogger creates a structured zerolog.Logger writing to w, tagged with the
// target environment and the run ID. Non-empty fields are added automatically.
func NewLogger(w io.Writer, cfg *config.Config, runID string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp().Str("service", "charmdeploy")

	if cfg.Environment != "" {
		ctx = ctx.Str("environment", cfg.Environment)
	}
	if runID != "" {
		ctx = ctx.Str("run_id", runID)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
