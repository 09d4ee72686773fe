package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "FLATBATCH_"

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides c with the FLATBATCH_* variables found by lookup.
// Blank values are ignored and values other than the delimiter are trimmed.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	env := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	strs := map[string]*string{
		"INPUT_PATH":         &c.InputPath,
		"OUTPUT_PATH":        &c.OutputPath,
		"WRITE_MODE":         &c.WriteMode,
		"ADD_PRICE":          &c.Transform.AddPrice,
		"SKIP_PRICE_BELOW":   &c.Transform.SkipPriceBelow,
		"CHECKPOINT_BACKEND": &c.Checkpoint.Backend,
		"CHECKPOINT_RUN_ID":  &c.Checkpoint.RunID,
		"CHECKPOINT_PATH":    &c.Checkpoint.Path,
		"CHECKPOINT_ADDR":    &c.Checkpoint.Addr,
		"CHECKPOINT_PREFIX":  &c.Checkpoint.Prefix,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"METRICS_ADDR":       &c.Metrics.Addr,
	}
	for name, dst := range strs {
		if v, ok := env(name); ok {
			*dst = v
		}
	}

	// Delimiters may be whitespace, so they are taken verbatim.
	if v, ok := lookup(EnvPrefix + "DELIMITER"); ok && v != "" {
		c.Delimiter = v
	}
	if v, ok := env("CHECKPOINT_ENDPOINTS"); ok {
		c.Checkpoint.Endpoints = splitList(v)
	}

	if v, ok := env("CHUNK_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("CHUNK_SIZE", v, err)
		}
		c.ChunkSize = n
	}
	if v, ok := env("SKIP_LIMIT"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return envError("SKIP_LIMIT", v, err)
		}
		c.SkipLimit = n
	}
	if v, ok := env("PRICE_SCALE"); ok {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return envError("PRICE_SCALE", v, err)
		}
		scale := int32(n)
		c.PriceScale = &scale
	}
	if v, ok := env("CHECKPOINT_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("CHECKPOINT_TTL", v, err)
		}
		c.Checkpoint.TTL = d
	}

	bools := map[string]*bool{
		"SYNC":      &c.Sync,
		"PIPELINED": &c.Pipelined,
	}
	for name, dst := range bools {
		v, ok := env(name)
		if !ok {
			continue
		}
		b, err := parseBool(v)
		if err != nil {
			return envError(name, v, err)
		}
		*dst = b
	}

	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envError(name, value string, err error) error {
	return fmt.Errorf("env %s%s=%q: %w", EnvPrefix, name, value, err)
}
