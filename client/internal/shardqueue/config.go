package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// EnvPrefix is the envconfig prefix read by LoadConfig.
const EnvPrefix = "QRZLOG_SQ"

// Config tunes a ShardExecutor. Zero values select the defaults noted on
// each field.
type Config struct {
	// Shards is the number of worker goroutines (default 4).
	Shards int `envconfig:"SHARDS" default:"4"`
	// QueueSize is the buffered capacity of each shard (default 128).
	QueueSize int `envconfig:"QUEUE_SIZE" default:"128"`
	// EnqueueTimeout bounds how long Submit waits for space (default 100ms).
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`
	// MaxAttempts caps runs per job, including the first (default 8).
	MaxAttempts int `envconfig:"MAX_ATTEMPTS" default:"8"`
	// BaseBackoff is the first retry delay (default 100ms).
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"100ms"`
	// MaxInterval caps a single retry delay (default 20s).
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"20s"`

	// ErrorHandler receives the final error of every job that did not
	// succeed, together with the key it was submitted under.
	ErrorHandler func(key string, err error) `ignored:"true"`
	// Logger receives lifecycle and failure events. Defaults to a no-op.
	Logger *zerolog.Logger `ignored:"true"`
}

// LoadConfig reads QRZLOG_SQ_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 8
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 20 * time.Second
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}
