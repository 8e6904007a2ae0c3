// Package config loads aggkit configuration from YAML files, .env files and
// environment variables.
//
// It uses Viper for file and environment handling. Every key declared in the
// target struct's `mapstructure` tags can be overridden from the environment
// using the AGGKIT_ prefix and underscore-separated paths
// (e.g., AGGKIT_BUILDER_SKIP_MODEL_CHECK=true).
//
// # Usage
//
//	var cfg config.File
//	if err := config.Load("reports", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	b, err := aggregate.New(coll, aggregate.WithConfig(cfg.Builder))
package config
