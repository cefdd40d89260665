package client

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

// EnvPrefix is the envconfig prefix read by LoadConfig.
const EnvPrefix = "QRZLOG"

// Config holds the environment-driven client settings.
// The API key and user agent are checked by New, not here.
type Config struct {
	APIKey      string        `envconfig:"API_KEY"`
	UserAgent   string        `envconfig:"USER_AGENT"`
	Endpoint    string        `envconfig:"ENDPOINT" default:"https://logbook.qrz.com/api" validate:"required,url"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" validate:"gt=0"`
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"1" validate:"min=1,max=10"`
	PageSize    int           `envconfig:"PAGE_SIZE" default:"250" validate:"min=1"`
	Debug       bool          `envconfig:"DEBUG" default:"false"`
}

var validate = validator.New()

// LoadConfig reads QRZLOG_* environment variables. Unparsable and
// out-of-range values are both reported as InvalidParams.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, clienterrors.InvalidParams("cannot parse "+EnvPrefix+" settings", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, clienterrors.InvalidParams("invalid "+EnvPrefix+" settings", err)
	}
	return &cfg, nil
}

// Options converts the settings to client options.
func (cfg *Config) Options() []Option {
	opts := []Option{
		WithEndpoint(cfg.Endpoint),
		WithHTTPTimeout(cfg.HTTPTimeout),
		WithMaxAttempts(cfg.MaxAttempts),
		WithPageSize(cfg.PageSize),
	}
	if cfg.Debug {
		opts = append(opts, WithDebugLogging(true))
	}
	return opts
}

// NewFromEnv builds a Client from QRZLOG_* variables. Explicit opts are
// applied after the environment-derived ones.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg.APIKey, cfg.UserAgent, append(cfg.Options(), opts...)...)
}
