// Package config provides configuration management for the leapbf CLI.
package config

import (
	"github.com/leapstack-labs/leapbf/internal/toolchain"
	"github.com/leapstack-labs/leapbf/pkg/optimize"
	"github.com/leapstack-labs/leapbf/pkg/tape"
)

// Config holds all CLI configuration options.
type Config struct {
	TapeSize  int            `koanf:"tape_size"`
	EOF       tape.EOFPolicy `koanf:"eof"`
	OptLevel  int            `koanf:"opt_level"`
	CC        string         `koanf:"cc"`
	CFlags    []string       `koanf:"cflags"`
	Jobs      int            `koanf:"jobs"`
	StatePath string         `koanf:"state_path"`
	History   bool           `koanf:"history"`
	Verbose   bool           `koanf:"verbose"`
	Color     string         `koanf:"color"`
}

// Default configuration values.
const (
	DefaultStateFile = ".leapbf/history.db"
	DefaultColor     = "auto" // TTY=styled, non-TTY=plain
	DefaultJobs      = 0      // number of CPUs
)

// Color modes accepted by the color key.
var ColorModes = []string{"auto", "always", "never"}

// Default returns the configuration used when nothing overrides the defaults.
func Default() *Config {
	return &Config{
		TapeSize:  tape.DefaultSize,
		EOF:       tape.EOFUnchanged,
		OptLevel:  int(optimize.DefaultLevel),
		CC:        toolchain.DefaultCC,
		Jobs:      DefaultJobs,
		StatePath: DefaultStateFile,
		History:   true,
		Color:     DefaultColor,
	}
}

// Tape returns the tape policy described by c.
func (c *Config) Tape() tape.Config {
	return tape.Config{Size: c.TapeSize, EOF: c.EOF}
}

// Level returns the optimization level described by c.
func (c *Config) Level() optimize.Level {
	return optimize.Level(c.OptLevel)
}

// Toolchain returns the external compiler configuration described by c.
func (c *Config) Toolchain() toolchain.Config {
	return toolchain.Config{CC: c.CC, Flags: c.CFlags, OptLevel: c.OptLevel}
}
