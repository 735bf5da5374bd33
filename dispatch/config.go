package dispatch

import (
	"time"

	"github.com/kbukum/llmdispatch/validation"
)

// Default configuration values.
const (
	DefaultModel            = "gpt-3.5-turbo"
	DefaultMaxMessageLength = 4000
	DefaultMaxRetries       = 3
	DefaultRequestTimeout   = 30 * time.Second
	DefaultRetryBackoff     = 1 * time.Second
	DefaultRateLimitBackoff = 2 * time.Second
)

// Config holds configuration for creating a Dispatcher.
type Config struct {
	// APIKey is the completion API credential.
	APIKey string `yaml:"api_key" mapstructure:"api_key" validate:"required"`

	// BaseURL overrides the completion API endpoint. Empty selects the
	// provider default.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Model is the default model used when a dispatch does not name one.
	Model string `yaml:"model" mapstructure:"model"`

	// MaxMessageLength is the maximum accepted message length in characters.
	MaxMessageLength int `yaml:"max_message_length" mapstructure:"max_message_length" validate:"gt=0"`

	// MaxRetries is the number of attempts per dispatch, including the first.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries" validate:"gt=0"`

	// RequestTimeout bounds each attempt. It is enforced by the API client
	// layer, not by the dispatcher.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout" validate:"gt=0"`

	// RetryBackoff is the sleep between attempts after a generic or
	// unexpected error.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`

	// RateLimitBackoff is the sleep between attempts after a rate-limit
	// signal.
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff" mapstructure:"rate_limit_backoff" validate:"gte=0"`
}

// ApplyDefaults applies default values to unset config fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxMessageLength == 0 {
		c.MaxMessageLength = DefaultMaxMessageLength
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.RateLimitBackoff == 0 {
		c.RateLimitBackoff = DefaultRateLimitBackoff
	}
}

// Validate validates dispatch configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
