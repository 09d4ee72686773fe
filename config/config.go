// Package config loads the configuration of a flatbatch run from a YAML
// file and FLATBATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/MasterOfBinary/flatbatch/batch"
	"github.com/MasterOfBinary/flatbatch/sink"
)

// Checkpoint backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendEtcd   = "etcd"
	BackendRedis  = "redis"
)

// Config defines the run configuration schema.
type Config struct {
	InputPath  string `yaml:"input_path"`
	OutputPath string `yaml:"output_path"`
	ChunkSize  int    `yaml:"chunk_size"`
	Delimiter  string `yaml:"delimiter"`
	WriteMode  string `yaml:"write_mode"`

	// PriceScale forces the number of fraction digits in written prices.
	// When nil each price keeps its own scale.
	PriceScale *int32 `yaml:"price_scale"`

	Sync      bool   `yaml:"sync"`
	Pipelined bool   `yaml:"pipelined"`
	SkipLimit uint64 `yaml:"skip_limit"`

	Transform  TransformConfig  `yaml:"transform"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// TransformConfig selects the record processors. Amounts are decimal literals.
type TransformConfig struct {
	AddPrice       string `yaml:"add_price"`
	SkipPriceBelow string `yaml:"skip_price_below"`
}

type CheckpointConfig struct {
	Backend   string        `yaml:"backend"`
	RunID     string        `yaml:"run_id"`
	Path      string        `yaml:"path"`
	Endpoints []string      `yaml:"endpoints"`
	Addr      string        `yaml:"addr"`
	Prefix    string        `yaml:"prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a Config with every optional value set. InputPath,
// OutputPath and ChunkSize have no default.
func Default() Config {
	return Config{
		Delimiter: ",",
		WriteMode: sink.ModeAppend.String(),
		Checkpoint: CheckpointConfig{
			Backend: BackendNone,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over Default, applies FLATBATCH_*
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid value in c.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.InputPath) == "" {
		add("input_path is required")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		add("output_path is required")
	}
	if c.ChunkSize < 1 {
		add("chunk_size must be at least 1, got %d", c.ChunkSize)
	}
	if c.Delimiter == "" {
		add("delimiter cannot be empty")
	}
	mode, err := sink.ParseMode(c.WriteMode)
	if err != nil {
		add("write_mode: %w", err)
	}
	if c.PriceScale != nil && *c.PriceScale < 0 {
		add("price_scale must not be negative, got %d", *c.PriceScale)
	}
	if _, _, err := c.Transform.AddPriceDelta(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := c.Transform.SkipPriceFloor(); err != nil {
		errs = append(errs, err)
	}

	switch c.Checkpoint.Backend {
	case "", BackendNone, BackendMemory:
	case BackendFile:
		if c.Checkpoint.Path == "" {
			add("checkpoint.path is required for the file backend")
		}
	case BackendEtcd:
		if len(c.Checkpoint.Endpoints) == 0 {
			add("checkpoint.endpoints is required for the etcd backend")
		}
	case BackendRedis:
		if c.Checkpoint.Addr == "" {
			add("checkpoint.addr is required for the redis backend")
		}
	default:
		add("unknown checkpoint.backend %q", c.Checkpoint.Backend)
	}
	// A resumed run skips input whose output a truncating writer has
	// already thrown away.
	if mode == sink.ModeTruncate && c.Checkpoint.Enabled() {
		add("write_mode truncate cannot be combined with checkpoint.backend %q", c.Checkpoint.Backend)
	}
	if c.Checkpoint.TTL < 0 {
		add("checkpoint.ttl must not be negative")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		add("log.format must be text or json, got %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// BatchValues returns the values that drive the chunk loop.
func (c Config) BatchValues() batch.ConfigValues {
	return batch.ConfigValues{
		ChunkSize: c.ChunkSize,
		SkipLimit: c.SkipLimit,
		Pipelined: c.Pipelined,
	}
}

// Enabled reports whether a checkpoint backend is configured.
func (c CheckpointConfig) Enabled() bool {
	return c.Backend != "" && c.Backend != BackendNone
}

// AddPriceDelta returns the amount to add to every price. ok is false when
// no amount is configured.
func (t TransformConfig) AddPriceDelta() (delta decimal.Decimal, ok bool, err error) {
	return parseAmount("transform.add_price", t.AddPrice)
}

// SkipPriceFloor returns the price below which records are skipped. ok is
// false when no floor is configured.
func (t TransformConfig) SkipPriceFloor() (floor decimal.Decimal, ok bool, err error) {
	return parseAmount("transform.skip_price_below", t.SkipPriceBelow)
}

func parseAmount(key, value string) (decimal.Decimal, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%s: invalid decimal %q: %w", key, value, err)
	}
	return d, true, nil
}
