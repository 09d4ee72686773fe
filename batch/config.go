package batch

import "sync"

// Config retrieves the config values used by Step. If these values are
// constant, NewConstantConfig can be used to create an implementation
// of the interface.
//
// The chunk size is reloaded before each chunk is read, so a DynamicConfig
// can tune it while a run is in progress. SkipLimit and Pipelined are read
// once when the run starts.
type Config interface {
	// Get returns the values for configuration.
	//
	// If the config values may be modified during a run, Get must properly
	// handle concurrency issues.
	Get() ConfigValues
}

// ConfigValues is a struct that contains the Step config values.
type ConfigValues struct {
	// ChunkSize is the maximum number of items read, processed and written
	// as one unit. It must be positive. The last chunk of a run may be
	// shorter.
	ChunkSize int `json:"chunkSize" yaml:"chunk_size"`

	// SkipLimit is the maximum number of items processors may skip during a
	// run. Once exceeded, the run fails with ErrSkipLimitExceeded. Zero means
	// no limit.
	SkipLimit uint64 `json:"skipLimit" yaml:"skip_limit"`

	// Pipelined overlaps reading and processing the next chunk with writing
	// the current one. Output order and failure behavior are the same as in
	// sequential mode.
	Pipelined bool `json:"pipelined" yaml:"pipelined"`
}

// NewConstantConfig returns a Config with constant values. If values
// is nil, the zero ConfigValues are used, which Step rejects because the
// chunk size is not positive.
func NewConstantConfig(values *ConfigValues) *ConstantConfig {
	if values == nil {
		return &ConstantConfig{}
	}

	return &ConstantConfig{
		values: *values,
	}
}

// ConstantConfig is a Config with constant values. Create one with
// NewConstantConfig.
//
// This implementation is safe to use concurrently since the values
// never change after initialization.
type ConstantConfig struct {
	values ConfigValues
}

// Get implements the Config interface.
func (b *ConstantConfig) Get() ConfigValues {
	return b.values
}

// NewDynamicConfig creates a configuration that can be adjusted at runtime.
// It is thread-safe. If values is nil, the zero ConfigValues are used.
func NewDynamicConfig(values *ConfigValues) *DynamicConfig {
	if values == nil {
		return &DynamicConfig{}
	}

	return &DynamicConfig{
		chunkSize: values.ChunkSize,
		skipLimit: values.SkipLimit,
		pipelined: values.Pipelined,
	}
}

// DynamicConfig implements the Config interface with values that can be
// modified at runtime.
type DynamicConfig struct {
	mu        sync.RWMutex
	chunkSize int
	skipLimit uint64
	pipelined bool
}

// Get implements the Config interface by returning the current configuration values.
func (c *DynamicConfig) Get() ConfigValues {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ConfigValues{
		ChunkSize: c.chunkSize,
		SkipLimit: c.skipLimit,
		Pipelined: c.pipelined,
	}
}

// UpdateChunkSize changes the chunk size used for chunks read after the call.
// Non-positive sizes are ignored by a running Step, which keeps the last
// valid size.
func (c *DynamicConfig) UpdateChunkSize(chunkSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunkSize = chunkSize
}

// Update replaces all configuration values at once.
func (c *DynamicConfig) Update(config ConfigValues) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunkSize = config.ChunkSize
	c.skipLimit = config.SkipLimit
	c.pipelined = config.Pipelined
}

// validateConfig rejects values that cannot start a run.
func validateConfig(c ConfigValues) error {
	if c.ChunkSize <= 0 {
		return &ConfigError{Err: errChunkSize(c.ChunkSize)}
	}
	return nil
}
