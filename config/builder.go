package config

import (
	"fmt"
	"time"
)

// DefaultPrintIndent is the number of spaces used when rendering pipelines.
const DefaultPrintIndent = 4

// BuilderConfig holds the tunables applied to aggregation pipeline builders.
type BuilderConfig struct {
	// SkipModelCheck accepts collection handles without an aggregation method.
	SkipModelCheck bool `yaml:"skip_model_check" mapstructure:"skip_model_check"`
	// Sanitize drops nil, NaN and empty-string parameters. Defaults to true.
	Sanitize *bool `yaml:"sanitize" mapstructure:"sanitize"`
	// PrintIndent is the indentation width used by Executor.Print.
	PrintIndent int `yaml:"print_indent" mapstructure:"print_indent"`
	// PrintRelaxed renders relaxed instead of canonical Extended JSON.
	PrintRelaxed bool `yaml:"print_relaxed" mapstructure:"print_relaxed"`
	// AllowDiskUse lets the server spill large stages to disk.
	AllowDiskUse bool `yaml:"allow_disk_use" mapstructure:"allow_disk_use"`
	// MaxTime bounds server-side execution time. Zero means no limit.
	MaxTime time.Duration `yaml:"max_time" mapstructure:"max_time"`
	// BatchSize sets the cursor batch size. Zero uses the server default.
	BatchSize int32 `yaml:"batch_size" mapstructure:"batch_size"`
	// Comment is attached to every aggregate command for profiling.
	Comment string `yaml:"comment" mapstructure:"comment"`
}

// ApplyDefaults applies default values to builder configuration.
func (c *BuilderConfig) ApplyDefaults() {
	if c.Sanitize == nil {
		sanitize := true
		c.Sanitize = &sanitize
	}
	if c.PrintIndent == 0 {
		c.PrintIndent = DefaultPrintIndent
	}
}

// SanitizeEnabled reports the effective sanitize setting.
func (c *BuilderConfig) SanitizeEnabled() bool {
	return c.Sanitize == nil || *c.Sanitize
}

// Validate validates builder configuration.
func (c *BuilderConfig) Validate() error {
	if c.PrintIndent < 0 || c.PrintIndent > 16 {
		return fmt.Errorf("builder.print_indent must be between 0 and 16 (got: %d)", c.PrintIndent)
	}
	if c.MaxTime < 0 {
		return fmt.Errorf("builder.max_time must not be negative (got: %s)", c.MaxTime)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("builder.batch_size must not be negative (got: %d)", c.BatchSize)
	}
	return nil
}
