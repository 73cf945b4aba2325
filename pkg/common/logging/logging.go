// Package logging builds zerolog loggers for forkflow programs.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
)

// Config describes a logger.
type Config struct {
	// Level is one of trace, debug, info, warn, error. Default: info
	Level string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`

	// Format is json or console. Default: json
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`

	// Output is stdout or stderr. Default: stderr
	Output string `mapstructure:"output" validate:"omitempty,oneof=stdout stderr"`

	// Timestamp adds a time field to every event.
	Timestamp bool `mapstructure:"timestamp"`

	// NoColor disables colors in console format.
	NoColor bool `mapstructure:"no_color"`
}

// DefaultConfig returns a json logger at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Output:    "stderr",
		Timestamp: true,
	}
}

// New builds a logger writing to the configured output.
func New(cfg Config) (zerolog.Logger, error) {
	var out io.Writer = os.Stderr
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
	case "stdout":
		out = os.Stdout
	default:
		return zerolog.Nop(), fferrors.NewValidationError("logging", "Output", cfg.Output, "unknown output").
			WithHint("use stdout or stderr")
	}
	return NewWithWriter(cfg, out)
}

// NewWithWriter builds a logger writing to w. Output is ignored.
func NewWithWriter(cfg Config, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fferrors.NewValidationError("logging", "Level", cfg.Level, "unknown level").
				WithHint("use trace, debug, info, warn or error")
		}
		level = parsed
	}

	switch strings.ToLower(cfg.Format) {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: cfg.NoColor}
	default:
		return zerolog.Nop(), fferrors.NewValidationError("logging", "Format", cfg.Format, "unknown format").
			WithHint("use json or console")
	}

	ctx := zerolog.New(w).Level(level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger(), nil
}
