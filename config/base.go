package config

import (
	"fmt"

	"github.com/kbukum/aggkit/logger"
)

// BaseConfig contains the fields every application embedding aggkit carries.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults applies default values to base configuration.
func (c *BaseConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// Validate validates base configuration.
func (c *BaseConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("base.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	for _, v := range validEnvs {
		if c.Environment == v {
			return nil
		}
	}
	return fmt.Errorf("base.environment must be one of [development, staging, production] (got: %s)", c.Environment)
}

// File is the full configuration document understood by aggkit.
type File struct {
	Base    BaseConfig    `yaml:"base" mapstructure:"base"`
	Builder BuilderConfig `yaml:"builder" mapstructure:"builder"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies defaults to every section.
func (f *File) ApplyDefaults() {
	f.Base.ApplyDefaults()
	f.Builder.ApplyDefaults()
	f.Logging.ApplyDefaults()
}

// Validate validates every section and returns the first failure.
func (f *File) Validate() error {
	if err := f.Base.Validate(); err != nil {
		return err
	}
	if err := f.Builder.Validate(); err != nil {
		return err
	}
	return f.Logging.Validate()
}
