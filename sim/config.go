package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KernelConfig holds kernel construction parameters, loadable from a YAML
// file. Zero values mean "use the default".
type KernelConfig struct {
	// MinTimeBetweenEvents is the per-destination minimum spacing (epsilon)
	// between accepted events. A newly scheduled event landing less than
	// epsilon after the last accepted event for the same destination is
	// discarded, which keeps zero-delay message storms from stalling the
	// clock. 0 disables the policy.
	MinTimeBetweenEvents float64 `yaml:"min_time_between_events"`
	// TerminateAt schedules termination once the clock reaches this time.
	// 0 means run until the future queue drains.
	TerminateAt float64 `yaml:"terminate_at"`
	// LogLevel is the logrus level name used by the CLI ("", meaning the
	// caller's choice, or trace, debug, info, warn, error, fatal, panic).
	LogLevel string `yaml:"log_level"`
}

// DefaultKernelConfig returns the configuration used when no file or flag
// overrides are given.
func DefaultKernelConfig() KernelConfig {
	return KernelConfig{}
}

// LoadKernelConfig reads and parses a YAML kernel configuration file.
func LoadKernelConfig(path string) (KernelConfig, error) {
	var cfg KernelConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading kernel config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing kernel config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validLogLevels is the set of recognized logrus level names.
var validLogLevels = map[string]bool{
	"": true, "trace": true, "debug": true, "info": true,
	"warn": true, "error": true, "fatal": true, "panic": true,
}

// Validate checks that all parameter ranges and names in the config are valid.
func (c KernelConfig) Validate() error {
	if c.MinTimeBetweenEvents < 0 {
		return fmt.Errorf("min_time_between_events must be >= 0, got %g", c.MinTimeBetweenEvents)
	}
	if c.TerminateAt < 0 {
		return fmt.Errorf("terminate_at must be >= 0, got %g", c.TerminateAt)
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
