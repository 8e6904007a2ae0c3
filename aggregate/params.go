package aggregate

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/kbukum/aggkit/validation"
)

// record is a typed stage parameter set that renders itself as a document.
type record interface {
	document() bson.D
}

// checker is implemented by records with rules struct tags cannot express.
type checker interface {
	check(v *validation.Validator)
}

// BucketParams configures a $bucket stage.
type BucketParams struct {
	GroupBy    any   `bson:"groupBy" yaml:"groupBy" validate:"present"`
	Boundaries []any `bson:"boundaries" yaml:"boundaries" validate:"present"`
	Default    any   `bson:"default" yaml:"default"`
	Output     any   `bson:"output" yaml:"output"`
}

func (p BucketParams) document() bson.D {
	d := bson.D{
		{Key: "groupBy", Value: p.GroupBy},
		{Key: "boundaries", Value: p.Boundaries},
	}
	d = appendIfSet(d, "default", p.Default)
	return appendIfSet(d, "output", p.Output)
}

// Granularities accepted by $bucketAuto.
var Granularities = []string{
	"R5", "R10", "R20", "R40", "R80", "1-2-5",
	"E6", "E12", "E24", "E48", "E96", "E192", "POWERSOF2",
}

// BucketAutoParams configures a $bucketAuto stage.
type BucketAutoParams struct {
	GroupBy     any    `bson:"groupBy" yaml:"groupBy" validate:"present"`
	Buckets     int    `bson:"buckets" yaml:"buckets" validate:"required,gt=0"`
	Output      any    `bson:"output" yaml:"output"`
	Granularity string `bson:"granularity" yaml:"granularity"`
}

func (p BucketAutoParams) check(v *validation.Validator) {
	v.OneOf("granularity", p.Granularity, Granularities)
}

func (p BucketAutoParams) document() bson.D {
	d := bson.D{
		{Key: "groupBy", Value: p.GroupBy},
		{Key: "buckets", Value: p.Buckets},
	}
	d = appendIfSet(d, "output", p.Output)
	return appendIfSet(d, "granularity", p.Granularity)
}

// CollStatsParams configures a $collStats stage. All fields are optional;
// an empty document such as bson.D{} enables a section.
type CollStatsParams struct {
	LatencyStats   any `bson:"latencyStats" yaml:"latencyStats"`
	StorageStats   any `bson:"storageStats" yaml:"storageStats"`
	Count          any `bson:"count" yaml:"count"`
	QueryExecStats any `bson:"queryExecStats" yaml:"queryExecStats"`
}

func (p CollStatsParams) document() bson.D {
	d := bson.D{}
	d = appendIfSet(d, "latencyStats", p.LatencyStats)
	d = appendIfSet(d, "storageStats", p.StorageStats)
	d = appendIfSet(d, "count", p.Count)
	return appendIfSet(d, "queryExecStats", p.QueryExecStats)
}

// GraphLookupParams configures a $graphLookup stage.
type GraphLookupParams struct {
	From                    string `bson:"from" yaml:"from" validate:"required"`
	StartWith               any    `bson:"startWith" yaml:"startWith" validate:"present"`
	ConnectFromField        string `bson:"connectFromField" yaml:"connectFromField" validate:"required"`
	ConnectToField          string `bson:"connectToField" yaml:"connectToField"`
	As                      string `bson:"as" yaml:"as" validate:"required"`
	MaxDepth                *int64 `bson:"maxDepth" yaml:"maxDepth" validate:"omitempty,gte=0"`
	DepthField              string `bson:"depthField" yaml:"depthField"`
	RestrictSearchWithMatch any    `bson:"restrictSearchWithMatch" yaml:"restrictSearchWithMatch"`
}

func (p GraphLookupParams) document() bson.D {
	d := bson.D{
		{Key: "from", Value: p.From},
		{Key: "startWith", Value: p.StartWith},
		{Key: "connectFromField", Value: p.ConnectFromField},
	}
	d = appendIfSet(d, "connectToField", p.ConnectToField)
	d = append(d, bson.E{Key: "as", Value: p.As})
	if p.MaxDepth != nil {
		d = append(d, bson.E{Key: "maxDepth", Value: *p.MaxDepth})
	}
	d = appendIfSet(d, "depthField", p.DepthField)
	return appendIfSet(d, "restrictSearchWithMatch", p.RestrictSearchWithMatch)
}

// LookupParams configures a $lookup stage. Let and Pipeline are optional;
// Pipeline accepts a Pipeline, a mongo.Pipeline or a bson.A of stages.
type LookupParams struct {
	From         string `bson:"from" yaml:"from" validate:"required"`
	LocalField   string `bson:"localField" yaml:"localField" validate:"required"`
	ForeignField string `bson:"foreignField" yaml:"foreignField" validate:"required"`
	As           string `bson:"as" yaml:"as" validate:"required"`
	Let          any    `bson:"let" yaml:"let"`
	Pipeline     any    `bson:"pipeline" yaml:"pipeline"`
}

func (p LookupParams) document() bson.D {
	d := bson.D{
		{Key: "from", Value: p.From},
		{Key: "localField", Value: p.LocalField},
		{Key: "foreignField", Value: p.ForeignField},
		{Key: "as", Value: p.As},
	}
	d = appendIfSet(d, "let", p.Let)
	return appendIfSet(d, "pipeline", p.Pipeline)
}

// UnwindParams configures an $unwind stage.
type UnwindParams struct {
	Path                       string `bson:"path" yaml:"path" validate:"required,startswith=$"`
	IncludeArrayIndex          string `bson:"includeArrayIndex" yaml:"includeArrayIndex"`
	PreserveNullAndEmptyArrays *bool  `bson:"preserveNullAndEmptyArrays" yaml:"preserveNullAndEmptyArrays"`
}

func (p UnwindParams) document() bson.D {
	d := bson.D{{Key: "path", Value: p.Path}}
	d = appendIfSet(d, "includeArrayIndex", p.IncludeArrayIndex)
	if p.PreserveNullAndEmptyArrays != nil {
		d = append(d, bson.E{Key: "preserveNullAndEmptyArrays", Value: *p.PreserveNullAndEmptyArrays})
	}
	return d
}
