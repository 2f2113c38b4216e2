// Package logging builds the zerolog loggers used across provtrack.
package logging

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FieldComponent tags log lines with the component that emitted them.
const FieldComponent = "component"

// Config contains logging configuration.
type Config struct {
	Level   string `yaml:"level" mapstructure:"level"`
	Format  string `yaml:"format" mapstructure:"format"`
	NoColor bool   `yaml:"no_color" mapstructure:"no_color"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
}

// Validate checks level and format.
func (c *Config) Validate() error {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "disabled"}
	if !slices.Contains(validLevels, strings.ToLower(c.Level)) {
		return fmt.Errorf("log.level must be one of %v (got: %s)", validLevels, c.Level)
	}
	validFormats := []string{"json", "console"}
	if !slices.Contains(validFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("log.format must be one of %v (got: %s)", validFormats, c.Format)
	}
	return nil
}

// New returns a logger writing to w. Unknown levels fall back to info.
func New(cfg Config, w io.Writer) zerolog.Logger {
	cfg.ApplyDefaults()

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Component returns l tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(FieldComponent, name).Logger()
}
