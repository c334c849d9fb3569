package framecore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/framecore/jobs"
	"gopkg.in/yaml.v3"
)

// AutoWorkers selects jobs.DefaultWorkerCount.
const AutoWorkers = -1

// Config holds the startup-time layout of an Engine.
type Config struct {
	// PermanentBytes is the size of the arena that lives as long as the engine.
	PermanentBytes int `yaml:"permanent_bytes" json:"permanent_bytes"`
	// TransientBytes is the size of the arena rewound after every frame.
	TransientBytes int `yaml:"transient_bytes" json:"transient_bytes"`
	// MemoryLimitBytes caps the managed memory. 0 disables the limit.
	MemoryLimitBytes int64 `yaml:"memory_limit_bytes" json:"memory_limit_bytes"`
	// QueueCapacity is the work queue size, rounded up to a power of two.
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"`
	// Workers is the pool size. AutoWorkers derives it from the CPU count.
	Workers int `yaml:"workers" json:"workers"`
	// TargetFPS paces RunFrames. 0 runs frames back to back.
	TargetFPS float64 `yaml:"target_fps" json:"target_fps"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		PermanentBytes: 64 << 20,
		TransientBytes: 16 << 20,
		QueueCapacity:  jobs.DefaultCapacity,
		Workers:        AutoWorkers,
		LogLevel:       "info",
	}
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
// Unknown fields are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.PermanentBytes < 0:
		return invalidConfig("permanent_bytes", "must not be negative", nil)
	case c.TransientBytes < 0:
		return invalidConfig("transient_bytes", "must not be negative", nil)
	case c.PermanentBytes+c.TransientBytes <= 0:
		return invalidConfig("permanent_bytes", "permanent and transient memory are both empty", nil)
	case c.MemoryLimitBytes < 0:
		return invalidConfig("memory_limit_bytes", "must not be negative", nil)
	case c.MemoryLimitBytes > 0 && c.MemoryLimitBytes < int64(c.PermanentBytes)+int64(c.TransientBytes):
		return invalidConfig("memory_limit_bytes",
			fmt.Sprintf("%d is below the reserved %d bytes", c.MemoryLimitBytes, c.PermanentBytes+c.TransientBytes), nil)
	case c.QueueCapacity < 0:
		return invalidConfig("queue_capacity", "must not be negative", nil)
	case c.Workers < AutoWorkers:
		return invalidConfig("workers", fmt.Sprintf("must be >= %d", AutoWorkers), nil)
	case c.Workers > jobs.MaxWorkers:
		return invalidConfig("workers", fmt.Sprintf("must be <= %d", jobs.MaxWorkers), nil)
	case c.TargetFPS < 0:
		return invalidConfig("target_fps", "must not be negative", nil)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return invalidConfig("log_level", err.Error(), err)
	}
	return nil
}

// YAML encodes the configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
