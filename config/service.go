package config

import (
	"fmt"
	"os"

	"github.com/kbukum/llmdispatch/dispatch"
	"github.com/kbukum/llmdispatch/errors"
	"github.com/kbukum/llmdispatch/logger"
	"github.com/kbukum/llmdispatch/observability"
	"github.com/kbukum/llmdispatch/version"
)

// ServiceConfig is the full configuration for a service built on the
// dispatcher: identity fields plus the logging, dispatch, and
// observability sections.
type ServiceConfig struct {
	Name          string               `yaml:"name" mapstructure:"name"`
	Environment   string               `yaml:"environment" mapstructure:"environment"`
	Version       string               `yaml:"version" mapstructure:"version"`
	Debug         bool                 `yaml:"debug" mapstructure:"debug"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Dispatch      dispatch.Config      `yaml:"dispatch" mapstructure:"dispatch"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies default values to all configuration sections.
// The version falls back to the build-time version string.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = version.Version
	}
	c.Logging.ApplyDefaults()
	c.Dispatch.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates all configuration sections.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return errors.MissingField("name")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return errors.InvalidInput("environment",
			fmt.Sprintf("environment must be one of [development, staging, production] (got: %s)", c.Environment))
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("config.dispatch: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	return nil
}

// LoadServiceConfig loads, defaults, and validates the full service
// configuration. The service name seeds file discovery and is used as
// the config name when the file provides none. An unset dispatch API
// key falls back to the OPENAI_API_KEY environment variable.
func LoadServiceConfig(serviceName string, opts ...Option) (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := Load(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	if cfg.Dispatch.APIKey == "" {
		cfg.Dispatch.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
