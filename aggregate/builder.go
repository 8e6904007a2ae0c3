package aggregate

import (
	"context"
	stderrors "errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"

	"github.com/kbukum/aggkit/errors"
	"github.com/kbukum/aggkit/logger"
	"github.com/kbukum/aggkit/util"
	"github.com/kbukum/aggkit/validation"
)

// Builder accumulates validated stages for one collection handle.
//
// Stage methods return the receiver so calls chain. A call with invalid
// parameters appends nothing and records its error; the recorded errors are
// returned by Err and Build. A Builder is not safe for concurrent use.
type Builder struct {
	handle   any
	pipeline Pipeline
	settings settings
	err      error
}

// New creates a Builder for handle. Unless WithSkipModelCheck is set, handle
// must implement Collection or a configuration error is returned.
func New(handle any, opts ...Option) (*Builder, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	if !s.skipModelCheck {
		if _, ok := asCollection(handle); !ok {
			return nil, errNotCollection(handle)
		}
	}

	return &Builder{handle: handle, settings: s}, nil
}

// Err returns every error recorded by rejected stage calls, combined, or nil.
func (b *Builder) Err() error {
	return b.err
}

// Len returns the number of accepted stages.
func (b *Builder) Len() int {
	return len(b.pipeline)
}

// Pipeline returns a copy of the accepted stages.
func (b *Builder) Pipeline() Pipeline {
	return b.pipeline.Clone()
}

// Build finalizes the pipeline into an Executor. It fails with the recorded
// errors if any stage call was rejected. Later changes to the Builder do not
// affect the returned Executor.
func (b *Builder) Build() (*Executor, error) {
	if b.err != nil {
		return nil, b.err
	}
	return newExecutor(b.handle, b.pipeline.Clone(), b.settings), nil
}

// BuildAndExec builds the pipeline and runs it.
func (b *Builder) BuildAndExec(ctx context.Context) ([]bson.M, error) {
	e, err := b.Build()
	if err != nil {
		return nil, err
	}
	return e.Exec(ctx)
}

// Match filters documents.
func (b *Builder) Match(filter any) *Builder {
	return b.addDocument(KindMatch, "filter", filter, b.settings.sanitize)
}

// Project reshapes documents.
func (b *Builder) Project(projection any) *Builder {
	return b.addDocument(KindProject, "projection", projection, b.settings.sanitize)
}

// AddFields adds computed fields to documents.
func (b *Builder) AddFields(newFields any) *Builder {
	return b.addDocument(KindAddFields, "newFields", newFields, b.settings.sanitize)
}

// Bucket groups documents into buckets by explicit boundaries.
func (b *Builder) Bucket(p BucketParams) *Builder {
	return b.addRecord(KindBucket, p)
}

// BucketAuto groups documents into a fixed number of evenly sized buckets.
func (b *Builder) BucketAuto(p BucketAutoParams) *Builder {
	return b.addRecord(KindBucketAuto, p)
}

// CollStats reports collection statistics.
func (b *Builder) CollStats(p CollStatsParams) *Builder {
	return b.addRecord(KindCollStats, p)
}

// Count emits a single document holding the number of input documents in
// field.
func (b *Builder) Count(field string) *Builder {
	v := validation.New().Required("count", field)
	if field != "" {
		v.Custom(!strings.HasPrefix(field, "$"), "count", "must not start with '$'").
			Custom(!strings.Contains(field, "."), "count", "must not contain '.'")
	}
	if v.HasErrors() {
		return b.reject(KindCount, fieldErrors(KindCount, v.Errors()))
	}
	return b.push(KindCount, field)
}

// Facet runs several sub-pipelines over the same input. Each field of facet
// must hold a complete sub-pipeline; their contents are not validated and
// are never sanitized.
func (b *Builder) Facet(facet any) *Builder {
	b.settings.logger().Warn("facet sub-pipelines are passed through without validation",
		logger.Fields(logger.FieldStage, string(KindFacet)))
	return b.addDocument(KindFacet, "facet", facet, false)
}

// GeoNear orders documents by distance from a point.
func (b *Builder) GeoNear(geoNear any) *Builder {
	return b.addDocument(KindGeoNear, "geoNear", geoNear, b.settings.sanitize)
}

// GraphLookup performs a recursive search on a collection.
func (b *Builder) GraphLookup(p GraphLookupParams) *Builder {
	return b.addRecord(KindGraphLookup, p)
}

// Group groups documents by an _id expression.
func (b *Builder) Group(group any) *Builder {
	return b.addDocument(KindGroup, "group", group, b.settings.sanitize)
}

// IndexStats reports index usage statistics. It takes no parameters.
func (b *Builder) IndexStats() *Builder {
	return b.push(KindIndexStats, bson.D{})
}

// Limit passes through the first count documents. count must be positive.
func (b *Builder) Limit(count int64) *Builder {
	v := validation.New().Positive("count", count)
	if v.HasErrors() {
		return b.reject(KindLimit, fieldErrors(KindLimit, v.Errors()))
	}
	return b.push(KindLimit, count)
}

// Lookup joins documents from another collection.
func (b *Builder) Lookup(p LookupParams) *Builder {
	return b.addRecord(KindLookup, p)
}

// Out writes the results to a collection. out is a collection name or a
// {db, coll} document.
func (b *Builder) Out(out any) *Builder {
	if util.IsAbsent(out) {
		return b.reject(KindOut, errors.MissingField(string(KindOut), "out"))
	}
	if name, ok := out.(string); ok {
		return b.push(KindOut, name)
	}
	return b.addDocument(KindOut, "out", out, b.settings.sanitize)
}

// Redact restricts document content based on stored information.
func (b *Builder) Redact(redact any) *Builder {
	return b.addDocument(KindRedact, "redact", redact, b.settings.sanitize)
}

// ReplaceRoot promotes an embedded document to the top level.
func (b *Builder) ReplaceRoot(replaceRoot any) *Builder {
	return b.addDocument(KindReplaceRoot, "replaceRoot", replaceRoot, b.settings.sanitize)
}

// Sample randomly selects size documents. size must be positive.
func (b *Builder) Sample(size int64) *Builder {
	v := validation.New().Positive("size", size)
	if v.HasErrors() {
		return b.reject(KindSample, fieldErrors(KindSample, v.Errors()))
	}
	return b.push(KindSample, bson.D{{Key: "size", Value: size}})
}

// Skip drops the first count documents. count must not be negative.
func (b *Builder) Skip(count int64) *Builder {
	v := validation.New().NonNegative("count", count)
	if v.HasErrors() {
		return b.reject(KindSkip, fieldErrors(KindSkip, v.Errors()))
	}
	return b.push(KindSkip, count)
}

// Sort orders documents. Pass a bson.D when more than one key is used;
// map keys are applied in ascending name order.
func (b *Builder) Sort(sort any) *Builder {
	return b.addDocument(KindSort, "sort", sort, b.settings.sanitize)
}

// SortByCount groups by an expression and sorts the groups by size.
// pathToField is a "$field" path or an expression document.
func (b *Builder) SortByCount(pathToField any) *Builder {
	if util.IsAbsent(pathToField) {
		return b.reject(KindSortByCount, errors.MissingField(string(KindSortByCount), "pathToField"))
	}
	if path, ok := pathToField.(string); ok {
		if !strings.HasPrefix(path, "$") {
			return b.reject(KindSortByCount,
				errors.InvalidArgument(string(KindSortByCount), "pathToField", "must start with $"))
		}
		return b.push(KindSortByCount, path)
	}
	return b.addDocument(KindSortByCount, "pathToField", pathToField, b.settings.sanitize)
}

// Unwind outputs one document per element of an array field.
func (b *Builder) Unwind(p UnwindParams) *Builder {
	return b.addRecord(KindUnwind, p)
}

// UnwindPath is shorthand for Unwind with only a path.
func (b *Builder) UnwindPath(path string) *Builder {
	return b.Unwind(UnwindParams{Path: path})
}

func (b *Builder) addDocument(kind Kind, field string, v any, clean bool) *Builder {
	if check := validation.New().Present(field, v); check.HasErrors() {
		return b.reject(kind, fieldErrors(kind, check.Errors()))
	}
	doc, err := toDocument(v)
	if err != nil {
		return b.reject(kind, errors.NotADocument(string(kind), v).WithCause(err))
	}
	if clean {
		doc = sanitize(doc)
	}
	return b.push(kind, doc)
}

func (b *Builder) addRecord(kind Kind, r record) *Builder {
	errs := validation.Struct(r)
	if c, ok := r.(checker); ok {
		v := validation.New()
		c.check(v)
		errs = append(errs, v.Errors()...)
	}
	if len(errs) > 0 {
		return b.reject(kind, fieldErrors(kind, errs))
	}
	doc := r.document()
	if b.settings.sanitize {
		if err := absentRequired(kind, doc); err != nil {
			return b.reject(kind, err)
		}
		doc = sanitize(doc)
	}
	return b.push(kind, doc)
}

// absentRequired reports required fields of d that hold a value sanitizing
// would drop, such as "" or NaN.
func absentRequired(kind Kind, d bson.D) error {
	var err error
	for _, field := range requiredFields[kind] {
		for _, e := range d {
			if e.Key == field && util.IsAbsent(e.Value) {
				err = multierr.Append(err, errors.MissingField(string(kind), field))
			}
		}
	}
	return err
}

// push appends a stage holding a deep copy of value, so later changes to
// the caller's arguments do not reach the pipeline.
func (b *Builder) push(kind Kind, value any) *Builder {
	b.pipeline = append(b.pipeline, Stage{kind: kind, value: cloneValue(value)})
	return b
}

func (b *Builder) reject(kind Kind, err error) *Builder {
	b.err = multierr.Append(b.err, err)

	code := ""
	if appErr, ok := errors.AsAppError(err); ok {
		code = string(appErr.Code)
	}
	b.settings.logger().Debug("stage rejected", logger.Fields(
		logger.FieldStage, string(kind),
		logger.FieldError, err.Error(),
	))
	b.settings.metrics.RecordRejectedStage(context.Background(), string(kind), code)
	return b
}

// fieldErrors converts validation failures into AppErrors for kind.
func fieldErrors(kind Kind, errs []validation.FieldError) error {
	var combined error
	for _, fe := range errs {
		var appErr *errors.AppError
		switch {
		case fe.Missing():
			appErr = errors.MissingField(string(kind), fe.Field)
		case fe.Field == "":
			appErr = errors.InvalidArgument(string(kind), "", fe.Message)
		default:
			appErr = errors.InvalidArgument(string(kind), fe.Field, fe.Message)
		}
		combined = multierr.Append(combined, appErr)
	}
	return combined
}

// Errors splits an error returned by Build or Err into the individual stage
// errors, in the order the stage calls were made.
func Errors(err error) []*errors.AppError {
	var out []*errors.AppError
	for _, e := range multierr.Errors(err) {
		var appErr *errors.AppError
		if stderrors.As(e, &appErr) {
			out = append(out, appErr)
		}
	}
	return out
}
