package aggregate

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/aggkit/errors"
)

// Definition is a pipeline described in YAML:
//
//	name: black-cats
//	collection: cats
//	stages:
//	  - match: {color: black}
//	  - sort: {age: -1}
//	  - limit: 1
//
// Mapping key order is preserved, so stage documents keep the order they
// were written in.
type Definition struct {
	Name       string
	Collection string
	Stages     []StageSpec
}

// StageSpec is one unvalidated entry of a Definition.
type StageSpec struct {
	Kind Kind
	Spec any
	// Line is the source line of the entry, or zero when not parsed from YAML.
	Line int
}

type rawDefinition struct {
	Name       string      `yaml:"name"`
	Collection string      `yaml:"collection"`
	Stages     []yaml.Node `yaml:"stages"`
}

// ParseDefinition parses a YAML pipeline definition.
func ParseDefinition(data []byte) (*Definition, error) {
	return parseDefinition("<inline>", data)
}

// LoadDefinition reads and parses the YAML pipeline definition at path.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidDefinition(path, err)
	}
	return parseDefinition(path, data)
}

func parseDefinition(source string, data []byte) (*Definition, error) {
	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.InvalidDefinition(source, err)
	}

	def := &Definition{Name: raw.Name, Collection: raw.Collection}
	for i := range raw.Stages {
		node := &raw.Stages[i]
		if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
			return nil, errors.InvalidDefinition(source,
				fmt.Errorf("line %d: stage %d must be a mapping with exactly one key", node.Line, i))
		}
		var name string
		if err := node.Content[0].Decode(&name); err != nil {
			return nil, errors.InvalidDefinition(source, fmt.Errorf("line %d: %w", node.Line, err))
		}
		spec, err := nodeValue(node.Content[1])
		if err != nil {
			return nil, errors.InvalidDefinition(source, err)
		}
		kind, _ := ParseKind(name)
		def.Stages = append(def.Stages, StageSpec{Kind: kind, Spec: spec, Line: node.Line})
	}
	return def, nil
}

// nodeValue converts a YAML node into BSON-ready values: mappings become
// bson.D, sequences bson.A, scalars their resolved Go value.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		d := make(bson.D, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Content[i].Line, err)
			}
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			d = append(d, bson.E{Key: key, Value: v})
		}
		return d, nil
	case yaml.SequenceNode:
		a := make(bson.A, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			a = append(a, v)
		}
		return a, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

// Apply replays every entry through the matching Builder method, so the
// usual validation and sanitization apply. Rejected entries are recorded on
// the Builder like any other stage call.
func (d *Definition) Apply(b *Builder) *Builder {
	for i, s := range d.Stages {
		applyStage(b, i, s)
	}
	return b
}

// Build creates a Builder for handle, applies the definition and builds it.
func (d *Definition) Build(handle any, opts ...Option) (*Executor, error) {
	b, err := New(handle, opts...)
	if err != nil {
		return nil, err
	}
	return d.Apply(b).Build()
}

func applyStage(b *Builder, index int, s StageSpec) {
	switch s.Kind {
	case KindMatch:
		b.Match(s.Spec)
	case KindProject:
		b.Project(s.Spec)
	case KindAddFields:
		b.AddFields(s.Spec)
	case KindFacet:
		b.Facet(s.Spec)
	case KindGeoNear:
		b.GeoNear(s.Spec)
	case KindGroup:
		b.Group(s.Spec)
	case KindRedact:
		b.Redact(s.Spec)
	case KindReplaceRoot:
		b.ReplaceRoot(s.Spec)
	case KindSort:
		b.Sort(s.Spec)
	case KindSortByCount:
		b.SortByCount(s.Spec)
	case KindOut:
		b.Out(s.Spec)
	case KindIndexStats:
		if d, ok := s.Spec.(bson.D); s.Spec != nil && (!ok || len(d) > 0) {
			b.reject(s.Kind, errors.InvalidArgument(string(s.Kind), "", "takes no parameters").WithDetail("index", index))
			return
		}
		b.IndexStats()
	case KindCount:
		if s.Spec == nil {
			b.Count("")
			return
		}
		field, ok := s.Spec.(string)
		if !ok {
			b.reject(s.Kind, errors.InvalidArgument(string(s.Kind), "count", "must be a string").WithDetail("index", index))
			return
		}
		b.Count(field)
	case KindLimit, KindSkip, KindSample:
		applyNumeric(b, index, s)
	case KindBucket:
		var p BucketParams
		if decodeRecord(b, index, s, &p) {
			b.Bucket(p)
		}
	case KindBucketAuto:
		var p BucketAutoParams
		if decodeRecord(b, index, s, &p) {
			b.BucketAuto(p)
		}
	case KindCollStats:
		var p CollStatsParams
		if decodeRecord(b, index, s, &p) {
			b.CollStats(p)
		}
	case KindGraphLookup:
		var p GraphLookupParams
		if decodeRecord(b, index, s, &p) {
			b.GraphLookup(p)
		}
	case KindLookup:
		var p LookupParams
		if decodeRecord(b, index, s, &p) {
			b.Lookup(p)
		}
	case KindUnwind:
		if path, ok := s.Spec.(string); ok {
			b.UnwindPath(path)
			return
		}
		var p UnwindParams
		if decodeRecord(b, index, s, &p) {
			b.Unwind(p)
		}
	default:
		b.reject(s.Kind, errors.InvalidArgument(string(s.Kind), "", fmt.Sprintf("unknown stage kind %q", s.Kind)).
			WithDetail("index", index).
			WithDetail("line", s.Line))
	}
}

func applyNumeric(b *Builder, index int, s StageSpec) {
	field := requiredFields[s.Kind][0]
	spec := s.Spec
	// $sample is written as {size: n}; a bare number is accepted too.
	if d, ok := spec.(bson.D); ok {
		spec = nil
		for _, e := range d {
			if e.Key == field {
				spec = e.Value
			}
		}
	}

	var n int64
	if spec != nil {
		var ok bool
		if n, ok = toInt64(spec); !ok {
			b.reject(s.Kind, errors.InvalidArgument(string(s.Kind), field, "must be an integer").WithDetail("index", index))
			return
		}
	}

	switch s.Kind {
	case KindLimit:
		b.Limit(n)
	case KindSkip:
		if spec == nil {
			b.reject(s.Kind, errors.MissingField(string(s.Kind), field).WithDetail("index", index))
			return
		}
		b.Skip(n)
	case KindSample:
		b.Sample(n)
	}
}

// decodeRecord fills p from a document spec. It reports false, after
// recording the error, when the spec cannot be decoded.
func decodeRecord(b *Builder, index int, s StageSpec, p any) bool {
	if s.Spec == nil {
		// Let the builder report the missing required fields.
		return true
	}
	doc, err := toDocument(s.Spec)
	if err != nil {
		b.reject(s.Kind, errors.NotADocument(string(s.Kind), s.Spec).WithDetail("index", index))
		return false
	}
	data, err := bson.Marshal(doc)
	if err == nil {
		err = bson.Unmarshal(data, p)
	}
	if err != nil {
		b.reject(s.Kind, errors.InvalidArgument(string(s.Kind), "", err.Error()).WithCause(err).WithDetail("index", index))
		return false
	}
	return true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// DefinitionLoader loads pipeline definitions by name.
type DefinitionLoader interface {
	Load(name string) (*Definition, error)
}

// FileDefinitionLoader loads definitions from YAML files on disk.
type FileDefinitionLoader struct {
	dirs []string
}

// NewFileDefinitionLoader creates a loader that searches dirs, in order,
// for {name}.yaml and {name}.yml.
func NewFileDefinitionLoader(dirs ...string) DefinitionLoader {
	return &FileDefinitionLoader{dirs: dirs}
}

// Load returns the first definition named name. A file that exists but
// does not parse is reported rather than skipped.
func (l *FileDefinitionLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			def, err := LoadDefinition(path)
			if err != nil {
				return nil, err
			}
			if def.Name == "" {
				def.Name = name
			}
			return def, nil
		}
	}
	return nil, errors.InvalidDefinition(name, fmt.Errorf("definition %q not found in %v", name, l.dirs))
}
