package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wegman-software/osm2geojson-go/internal/geometry"
)

// Config holds the global configuration for a conversion run
type Config struct {
	// Input settings
	InputFile    string
	MaxInputSize string // human readable limit, e.g. "2GB"; empty = unlimited

	// Output settings
	OutputFile string // empty or "-" = stdout
	Indent     bool

	// Conversion settings
	StyleFile            string // Path to area rules YAML
	LuaFile              string // Path to property hook script
	KeepDuplicates       bool
	IncludeUntaggedNodes bool
	ClosedWays           string // "line" or "area"
	FailOnWarnings       bool

	// Processing settings
	Workers int

	// Logging and metrics
	Verbose         bool
	LogFile         string        // Path to log file (empty = no file logging)
	MetricsInterval time.Duration // Interval for system metrics logging, 0 = off
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ClosedWays:      string(geometry.ClosedWaysLine),
		Workers:         runtime.NumCPU(),
		MetricsInterval: 0,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if _, err := geometry.ParseClosedWayPolicy(c.ClosedWays); err != nil {
		return err
	}
	if _, err := c.MaxInputBytes(); err != nil {
		return err
	}
	if c.MetricsInterval < 0 {
		return fmt.Errorf("metrics interval must not be negative")
	}
	return nil
}

// MaxInputBytes parses MaxInputSize; 0 means unlimited
func (c *Config) MaxInputBytes() (int64, error) {
	if c.MaxInputSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MaxInputSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max input size %q: %w", c.MaxInputSize, err)
	}
	return int64(n), nil
}

// ToStdout reports whether output goes to standard output
func (c *Config) ToStdout() bool {
	return c.OutputFile == "" || c.OutputFile == "-"
}
