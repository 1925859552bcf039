package embedding

import (
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// Config is the immutable configuration of a Generator
type Config struct {
	// Model and Version identify the embedding model. They are recorded on
	// every embedded memory as "Model@Version".
	Model   string
	Version string

	// Dimension is the pinned vector length
	Dimension int

	// Timeout bounds a single embedding call
	Timeout time.Duration

	// RatePerSecond and Burst limit outbound calls. Zero disables limiting.
	RatePerSecond float64
	Burst         int

	// CacheSize is the number of texts whose vectors are memoized. Zero disables caching.
	CacheSize int
}

// DefaultConfig returns the configuration used when no option overrides it
func DefaultConfig() Config {
	return Config{
		Model:     "hash",
		Version:   "1",
		Dimension: model.DefaultEmbeddingDimension,
		Timeout:   30 * time.Second,
		Burst:     1,
		CacheSize: 1024,
	}
}

// ModelName returns "Model@Version"
func (c Config) ModelName() string {
	if c.Version == "" {
		return c.Model
	}
	return c.Model + "@" + c.Version
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Model == "" {
		return goerr.New("embedding model name is required")
	}
	if c.Dimension <= 0 {
		return goerr.New("embedding dimension must be positive", goerr.V("dimension", c.Dimension))
	}
	if c.Timeout <= 0 {
		return goerr.New("embedding timeout must be positive", goerr.V("timeout", c.Timeout))
	}
	if c.RatePerSecond < 0 {
		return goerr.New("embedding rate must not be negative", goerr.V("rate", c.RatePerSecond))
	}
	return nil
}

// Option customizes a Generator's Config
type Option func(*Config)

func WithModel(name, version string) Option {
	return func(c *Config) {
		c.Model = name
		c.Version = version
	}
}

func WithDimension(dim int) Option {
	return func(c *Config) {
		c.Dimension = dim
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Config) {
		c.RatePerSecond = perSecond
		c.Burst = burst
	}
}

func WithCacheSize(size int) Option {
	return func(c *Config) {
		c.CacheSize = size
	}
}
