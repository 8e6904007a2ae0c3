package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/aggkit/logger"
	"github.com/kbukum/aggkit/observability"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Executor holds a finalized pipeline bound to its collection handle. The
// pipeline is fixed at creation; it may be printed and executed any number
// of times.
type Executor struct {
	id       uuid.UUID
	handle   any
	pipeline Pipeline
	settings settings
}

func newExecutor(handle any, pipeline Pipeline, s settings) *Executor {
	s.aggregateOpts = append(s.aggregateOpts[:0:0], s.aggregateOpts...)
	return &Executor{
		id:       uuid.New(),
		handle:   handle,
		pipeline: pipeline,
		settings: s,
	}
}

// ID identifies this executor in logs and traces.
func (e *Executor) ID() uuid.UUID {
	return e.id
}

// Pipeline returns a copy of the finalized stages.
func (e *Executor) Pipeline() Pipeline {
	return e.pipeline.Clone()
}

// Len returns the number of stages.
func (e *Executor) Len() int {
	return len(e.pipeline)
}

// Render returns the pipeline as indented canonical Extended JSON, or
// relaxed Extended JSON when WithRelaxedJSON is set.
func (e *Executor) Render() (string, error) {
	if e.settings.relaxed {
		return e.pipeline.RenderRelaxed(e.settings.indent)
	}
	return e.pipeline.Render(e.settings.indent)
}

// Print writes the rendered pipeline to the configured output and returns
// the receiver for chaining. Rendering failures are logged.
func (e *Executor) Print() *Executor {
	out, err := e.Render()
	if err != nil {
		e.log().WithError(err).Error("failed to render pipeline")
		return e
	}
	if _, err := fmt.Fprintln(e.settings.output, out); err != nil {
		e.log().WithError(err).Error("failed to print pipeline")
	}
	return e
}

// Cursor submits the pipeline and returns the open result cursor. Driver
// errors are returned unchanged.
func (e *Executor) Cursor(ctx context.Context) (*mongo.Cursor, error) {
	coll, ok := asCollection(e.handle)
	if !ok {
		return nil, errNotCollection(e.handle)
	}
	return coll.Aggregate(ctx, e.pipeline.Documents(), e.settings.aggregateOpts...)
}

// Exec runs the pipeline and returns every result document.
func (e *Executor) Exec(ctx context.Context) ([]bson.M, error) {
	return All[bson.M](ctx, e)
}

// All runs the pipeline and decodes every result document into T.
func All[T any](ctx context.Context, e *Executor) ([]T, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAggregate,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrDBSystem, "mongodb"),
			attribute.String(observability.AttrDBOperation, "aggregate"),
			attribute.String(observability.AttrPipelineID, e.id.String()),
			attribute.Int(observability.AttrStageCount, len(e.pipeline)),
			attribute.StringSlice(observability.AttrStageKinds, kindNames(e.pipeline)),
		))
	defer span.End()

	start := time.Now()
	out, err := collect[T](ctx, e)
	duration := time.Since(start)

	log := e.log().WithFields(logger.Fields(
		logger.FieldPipelineID, e.id.String(),
		logger.FieldStages, len(e.pipeline),
		logger.FieldDuration, duration.Milliseconds(),
	))
	if err != nil {
		observability.SetSpanError(ctx, err)
		e.settings.metrics.RecordRun(ctx, statusError, len(e.pipeline), duration)
		log.WithError(err).Debug("aggregate failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String(observability.AttrStatus, statusOK),
		attribute.Int(observability.AttrResultCount, len(out)),
	)
	e.settings.metrics.RecordRun(ctx, statusOK, len(e.pipeline), duration)
	log.Debug("aggregate completed", logger.Fields(logger.FieldResults, len(out)))
	return out, nil
}

// collect submits the pipeline once and drains the cursor.
func collect[T any](ctx context.Context, e *Executor) ([]T, error) {
	cursor, err := e.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Executor) log() *logger.Logger {
	return e.settings.logger()
}

func kindNames(p Pipeline) []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = string(s.kind)
	}
	return names
}
