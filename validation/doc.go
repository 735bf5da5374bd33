// Package validation provides struct tag validation for configuration
// types, built on the go-playground validator.
//
// Field names in error messages are taken from mapstructure/yaml/json tags
// so that a failed validation reports the same keys a user writes in
// configuration files and environment variables.
//
// # Usage
//
//	type Config struct {
//	    APIKey     string `mapstructure:"api_key" validate:"required"`
//	    MaxRetries int    `mapstructure:"max_retries" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
package validation
