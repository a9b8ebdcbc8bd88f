package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapbf/pkg/optimize"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Tape().Validate(); err != nil {
		return fmt.Errorf("invalid tape_size or eof: %w", err)
	}
	if _, err := optimize.ParseLevel(c.OptLevel); err != nil {
		return fmt.Errorf("invalid opt_level: %w", err)
	}
	if c.CC == "" {
		return fmt.Errorf("cc is required")
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if !slices.Contains(ColorModes, c.Color) {
		return fmt.Errorf("unknown color mode %q (want auto, always or never)", c.Color)
	}
	return nil
}
