package aggregate

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Kind names a pipeline stage without its leading '$'.
type Kind string

const (
	KindMatch       Kind = "match"
	KindProject     Kind = "project"
	KindAddFields   Kind = "addFields"
	KindBucket      Kind = "bucket"
	KindBucketAuto  Kind = "bucketAuto"
	KindCollStats   Kind = "collStats"
	KindCount       Kind = "count"
	KindFacet       Kind = "facet"
	KindGeoNear     Kind = "geoNear"
	KindGraphLookup Kind = "graphLookup"
	KindGroup       Kind = "group"
	KindIndexStats  Kind = "indexStats"
	KindLimit       Kind = "limit"
	KindLookup      Kind = "lookup"
	KindOut         Kind = "out"
	KindRedact      Kind = "redact"
	KindReplaceRoot Kind = "replaceRoot"
	KindSample      Kind = "sample"
	KindSkip        Kind = "skip"
	KindSort        Kind = "sort"
	KindSortByCount Kind = "sortByCount"
	KindUnwind      Kind = "unwind"
)

// requiredFields lists, per stage kind, the parameter names that must be
// present when the stage is added.
var requiredFields = map[Kind][]string{
	KindMatch:       {"filter"},
	KindProject:     {"projection"},
	KindAddFields:   {"newFields"},
	KindBucket:      {"groupBy", "boundaries"},
	KindBucketAuto:  {"groupBy", "buckets"},
	KindCollStats:   {},
	KindCount:       {"count"},
	KindFacet:       {"facet"},
	KindGeoNear:     {"geoNear"},
	KindGraphLookup: {"from", "startWith", "connectFromField", "as"},
	KindGroup:       {"group"},
	KindIndexStats:  {},
	KindLimit:       {"count"},
	KindLookup:      {"from", "localField", "foreignField", "as"},
	KindOut:         {"out"},
	KindRedact:      {"redact"},
	KindReplaceRoot: {"replaceRoot"},
	KindSample:      {"size"},
	KindSkip:        {"count"},
	KindSort:        {"sort"},
	KindSortByCount: {"pathToField"},
	KindUnwind:      {"path"},
}

var allKinds = []Kind{
	KindMatch, KindProject, KindAddFields, KindBucket, KindBucketAuto,
	KindCollStats, KindCount, KindFacet, KindGeoNear, KindGraphLookup,
	KindGroup, KindIndexStats, KindLimit, KindLookup, KindOut, KindRedact,
	KindReplaceRoot, KindSample, KindSkip, KindSort, KindSortByCount, KindUnwind,
}

// Kinds returns every supported stage kind.
func Kinds() []Kind {
	return append([]Kind(nil), allKinds...)
}

// RequiredFields returns the parameter names a stage kind requires. It
// returns nil for unknown kinds and an empty slice for kinds without
// required parameters.
func RequiredFields(kind Kind) []string {
	fields, ok := requiredFields[kind]
	if !ok {
		return nil
	}
	return append([]string{}, fields...)
}

// ParseKind resolves a stage name, with or without the leading '$'.
func ParseKind(name string) (Kind, bool) {
	k := Kind(strings.TrimPrefix(name, "$"))
	_, ok := requiredFields[k]
	return k, ok
}

// Operator returns the stage operator, e.g. "$match".
func (k Kind) Operator() string {
	return "$" + string(k)
}

func (k Kind) String() string {
	return string(k)
}

// Stage is one immutable step of a pipeline: a kind plus its parameters.
// Stages are only created by Builder, after validation.
type Stage struct {
	kind  Kind
	value any
}

// Kind returns the stage kind.
func (s Stage) Kind() Kind { return s.kind }

// Value returns the stage parameters as recorded. It must not be modified.
func (s Stage) Value() any { return s.value }

// Document renders the stage as a single-key document, e.g. {$limit: 1}.
func (s Stage) Document() bson.D {
	return bson.D{{Key: s.kind.Operator(), Value: s.value}}
}

// MarshalBSON lets stages nest inside other documents, such as $facet
// sub-pipelines and $lookup pipelines.
func (s Stage) MarshalBSON() ([]byte, error) {
	return bson.Marshal(s.Document())
}

func (s Stage) String() string {
	data, err := bson.MarshalExtJSON(s.Document(), false, false)
	if err != nil {
		return fmt.Sprintf("{%s: <unrenderable: %v>}", s.kind.Operator(), err)
	}
	return string(data)
}

// Pipeline is an ordered sequence of stages.
type Pipeline []Stage

// Clone returns a copy whose stage slice is independent of p.
func (p Pipeline) Clone() Pipeline {
	if p == nil {
		return Pipeline{}
	}
	out := make(Pipeline, len(p))
	copy(out, p)
	return out
}

// Kinds returns the kind of each stage in order.
func (p Pipeline) Kinds() []Kind {
	kinds := make([]Kind, len(p))
	for i, s := range p {
		kinds[i] = s.kind
	}
	return kinds
}

// Documents converts the pipeline into the form accepted by the driver.
func (p Pipeline) Documents() mongo.Pipeline {
	docs := make(mongo.Pipeline, len(p))
	for i, s := range p {
		docs[i] = s.Document()
	}
	return docs
}

// Render returns the pipeline as a canonical Extended JSON array, which keeps
// numeric types distinct. A non-empty indent puts each stage on its own
// lines; an empty one renders compactly.
func (p Pipeline) Render(indent string) (string, error) {
	return p.render(indent, true)
}

// RenderRelaxed is like Render but uses relaxed Extended JSON, in which
// int32, int64 and whole doubles all print as plain numbers.
func (p Pipeline) RenderRelaxed(indent string) (string, error) {
	return p.render(indent, false)
}

func (p Pipeline) render(indent string, canonical bool) (string, error) {
	if len(p) == 0 {
		return "[]", nil
	}

	var sb strings.Builder
	sb.WriteString("[")
	for i, s := range p {
		var (
			data []byte
			err  error
		)
		if indent == "" {
			data, err = bson.MarshalExtJSON(s.Document(), canonical, false)
		} else {
			data, err = bson.MarshalExtJSONIndent(s.Document(), canonical, false, indent, indent)
		}
		if err != nil {
			return "", fmt.Errorf("rendering stage %d (%s): %w", i, s.kind, err)
		}

		if i > 0 {
			sb.WriteString(",")
		}
		if indent != "" {
			sb.WriteString("\n")
			sb.WriteString(indent)
		}
		sb.Write(data)
	}
	if indent != "" {
		sb.WriteString("\n")
	}
	sb.WriteString("]")
	return sb.String(), nil
}
