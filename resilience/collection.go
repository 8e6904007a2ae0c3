package resilience

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kbukum/aggkit/logger"
)

// Aggregator is the collection capability wrapped by Collection.
type Aggregator interface {
	Aggregate(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

// Collection wraps an Aggregator and re-submits aggregate calls that fail
// with transient errors. It is applied by the caller around the handle
// given to aggregate.New; executors themselves never retry.
type Collection struct {
	next Aggregator
	cfg  RetryConfig
}

// NewCollection wraps next with cfg. When cfg.OnRetry is unset and log is
// non-nil, each retry is logged at warn level.
func NewCollection(next Aggregator, cfg RetryConfig, log *logger.Logger) *Collection {
	if cfg.OnRetry == nil && log != nil {
		cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
			log.WithError(err).Warn("retrying aggregate", logger.Fields(
				logger.FieldAttempt, attempt,
				logger.FieldBackoff, backoff.Milliseconds(),
			))
		}
	}
	return &Collection{next: next, cfg: cfg}
}

// Aggregate forwards to the wrapped collection under the retry policy. The
// error of the final attempt is returned unchanged.
func (c *Collection) Aggregate(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	return Retry(ctx, c.cfg, func(ctx context.Context) (*mongo.Cursor, error) {
		return c.next.Aggregate(ctx, pipeline, opts...)
	})
}
