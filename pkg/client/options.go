package client

import (
	"github.com/rs/zerolog"

	"github.com/satishbabariya/unisql/internal/core/query/executor"
)

// Config contains all client configuration options.
type Config struct {
	// Logger receives engine events.
	Logger zerolog.Logger

	// LogQueries logs every statement through Logger when true.
	// Default: false
	LogQueries bool

	// Middleware wraps every driver call, in order.
	Middleware []executor.Middleware

	// TemplateCacheSize bounds the number of compiled template statements
	// kept for reuse. Zero disables the cache.
	// Default: 0
	TemplateCacheSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{Logger: zerolog.Nop()}
}

// Option is a function that configures the client.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithLogQueries enables or disables statement logging.
func WithLogQueries(enabled bool) Option {
	return func(c *Config) {
		c.LogQueries = enabled
	}
}

// WithMiddleware appends driver-call middleware.
func WithMiddleware(mw ...executor.Middleware) Option {
	return func(c *Config) {
		c.Middleware = append(c.Middleware, mw...)
	}
}

// WithTemplateCache keeps up to size compiled template statements, keyed by
// their text.
func WithTemplateCache(size int) Option {
	return func(c *Config) {
		c.TemplateCacheSize = size
	}
}

// ApplyOptions applies options to a config.
func ApplyOptions(config *Config, opts ...Option) {
	for _, opt := range opts {
		opt(config)
	}
}

func (c *Config) engineOptions() []executor.Option {
	logger := zerolog.Nop()
	if c.LogQueries {
		logger = c.Logger
	}
	return []executor.Option{
		executor.WithLogger(logger),
		executor.WithMiddleware(c.Middleware...),
	}
}
