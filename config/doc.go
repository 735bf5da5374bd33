// Package config loads service configuration from YAML files, .env files,
// and environment variables.
//
// Values are merged in order: YAML config file, then process environment,
// then a discovered .env file. Environment variables map onto nested keys
// by underscore splitting, so DISPATCH_API_KEY overrides dispatch.api_key
// and LOGGING_LEVEL overrides logging.level. When no dispatch API key is
// configured anywhere, LoadServiceConfig falls back to OPENAI_API_KEY.
//
// # Usage
//
//	cfg, err := config.LoadServiceConfig("llmdispatch")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d, err := dispatch.New(cfg.Dispatch)
//
// Explicit file paths and a fake filesystem can be injected for tests:
//
//	err := config.Load("llmdispatch", &cfg,
//	    config.WithConfigFile("testdata/config.yml"),
//	    config.WithEnvFile("testdata/.env"),
//	)
package config
