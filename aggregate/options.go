package aggregate

import (
	"io"
	"os"
	"strings"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kbukum/aggkit/config"
	"github.com/kbukum/aggkit/logger"
	"github.com/kbukum/aggkit/observability"
)

// settings holds the effective builder configuration. Executors inherit a
// copy at Build time.
type settings struct {
	skipModelCheck bool
	sanitize       bool
	log            *logger.Logger
	output         io.Writer
	indent         string
	relaxed        bool
	aggregateOpts  []*options.AggregateOptions
	metrics        *observability.Metrics
}

func defaultSettings() settings {
	return settings{
		sanitize: true,
		output:   os.Stdout,
		indent:   strings.Repeat(" ", config.DefaultPrintIndent),
	}
}

func (s *settings) logger() *logger.Logger {
	if s.log == nil {
		s.log = logger.Get("aggregate")
	}
	return s.log
}

// Option configures a Builder.
type Option func(*settings)

// WithSkipModelCheck accepts handles that cannot run aggregations. The
// failure is then reported when the pipeline is executed.
func WithSkipModelCheck(skip bool) Option {
	return func(s *settings) { s.skipModelCheck = skip }
}

// WithSanitize toggles removal of nil, NaN and empty-string parameters.
// Sanitization is on by default.
func WithSanitize(enabled bool) Option {
	return func(s *settings) { s.sanitize = enabled }
}

// WithLogger sets the logger used for advisories and run logs.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithOutput sets the writer used by Executor.Print.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithIndent sets the indentation used when rendering pipelines. An empty
// indent renders compactly.
func WithIndent(indent string) Option {
	return func(s *settings) { s.indent = indent }
}

// WithRelaxedJSON renders pipelines as relaxed Extended JSON. The output is
// easier to read but no longer tells int32, int64 and double apart.
func WithRelaxedJSON(relaxed bool) Option {
	return func(s *settings) { s.relaxed = relaxed }
}

// WithAggregateOptions passes driver options to every aggregate call.
func WithAggregateOptions(opts ...*options.AggregateOptions) Option {
	return func(s *settings) { s.aggregateOpts = append(s.aggregateOpts, opts...) }
}

// WithMetrics records stage rejections and runs on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithConfig applies a loaded builder configuration.
func WithConfig(cfg config.BuilderConfig) Option {
	return func(s *settings) {
		s.skipModelCheck = cfg.SkipModelCheck
		s.sanitize = cfg.SanitizeEnabled()
		s.relaxed = cfg.PrintRelaxed
		if cfg.PrintIndent > 0 {
			s.indent = strings.Repeat(" ", cfg.PrintIndent)
		}
		if opts := aggregateOptions(cfg); opts != nil {
			s.aggregateOpts = append(s.aggregateOpts, opts)
		}
	}
}

func aggregateOptions(cfg config.BuilderConfig) *options.AggregateOptions {
	if !cfg.AllowDiskUse && cfg.MaxTime == 0 && cfg.BatchSize == 0 && cfg.Comment == "" {
		return nil
	}
	opts := options.Aggregate()
	if cfg.AllowDiskUse {
		opts.SetAllowDiskUse(true)
	}
	if cfg.MaxTime > 0 {
		opts.SetMaxTime(cfg.MaxTime)
	}
	if cfg.BatchSize > 0 {
		opts.SetBatchSize(cfg.BatchSize)
	}
	if cfg.Comment != "" {
		opts.SetComment(cfg.Comment)
	}
	return opts
}
