package aggregate

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kbukum/aggkit/errors"
	"github.com/kbukum/aggkit/logger"
	"github.com/kbukum/aggkit/testutil"
)

const catsDefinition = `
name: black-cats
collection: cats
stages:
  - match:
      color: black
      age: {$gte: 2}
  - sort:
      name: 1
      age: -1
  - project: {_id: false, name: true}
  - unwind: $paws
  - lookup:
      from: owners
      localField: ownerId
      foreignField: _id
      as: owner
  - $limit: 10
  - sample: {size: 2}
`

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(catsDefinition))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if def.Name != "black-cats" || def.Collection != "cats" {
		t.Errorf("unexpected header %q %q", def.Name, def.Collection)
	}

	var kinds []Kind
	for _, s := range def.Stages {
		kinds = append(kinds, s.Kind)
	}
	want := []Kind{KindMatch, KindSort, KindProject, KindUnwind, KindLookup, KindLimit, KindSample}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("got kinds %v, want %v", kinds, want)
	}

	sort := def.Stages[1].Spec
	wantSort := bson.D{{Key: "name", Value: 1}, {Key: "age", Value: -1}}
	if !reflect.DeepEqual(sort, wantSort) {
		t.Errorf("expected key order preserved, got %#v", sort)
	}
	if def.Stages[0].Line == 0 {
		t.Error("expected source line on parsed stages")
	}
}

func TestDefinitionApply(t *testing.T) {
	def, err := ParseDefinition([]byte(catsDefinition))
	if err != nil {
		t.Fatal(err)
	}

	b := newBuilder(t)
	def.Apply(b)
	if err := b.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := b.Pipeline()
	if len(p) != 7 {
		t.Fatalf("expected 7 stages, got %d", len(p))
	}
	wantMatch := bson.D{
		{Key: "color", Value: "black"},
		{Key: "age", Value: bson.D{{Key: "$gte", Value: 2}}},
	}
	if !reflect.DeepEqual(p[0].Value(), wantMatch) {
		t.Errorf("unexpected match %#v", p[0].Value())
	}
	if !reflect.DeepEqual(p[3].Value(), bson.D{{Key: "path", Value: "$paws"}}) {
		t.Errorf("unexpected unwind %#v", p[3].Value())
	}
	wantLookup := bson.D{
		{Key: "from", Value: "owners"},
		{Key: "localField", Value: "ownerId"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "owner"},
	}
	if !reflect.DeepEqual(p[4].Value(), wantLookup) {
		t.Errorf("unexpected lookup %#v", p[4].Value())
	}
	if p[5].Value() != int64(10) {
		t.Errorf("unexpected limit %#v", p[5].Value())
	}
	if !reflect.DeepEqual(p[6].Value(), bson.D{{Key: "size", Value: int64(2)}}) {
		t.Errorf("unexpected sample %#v", p[6].Value())
	}
}

func TestDefinitionRecords(t *testing.T) {
	def, err := ParseDefinition([]byte(`
stages:
  - bucketAuto: {groupBy: $age, buckets: 3, granularity: R5}
  - graphLookup:
      from: cats
      startWith: $motherId
      connectFromField: motherId
      connectToField: _id
      as: ancestors
      maxDepth: 2
  - unwind: {path: $paws, preserveNullAndEmptyArrays: true}
  - collStats: {count: {}}
  - indexStats: {}
  - count: total
`))
	if err != nil {
		t.Fatal(err)
	}

	b := def.Apply(newBuilder(t))
	if err := b.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := b.Pipeline()
	if len(p) != 6 {
		t.Fatalf("expected 6 stages, got %d", len(p))
	}

	wantBucketAuto := bson.D{{Key: "groupBy", Value: "$age"}, {Key: "buckets", Value: 3}, {Key: "granularity", Value: "R5"}}
	if !reflect.DeepEqual(p[0].Value(), wantBucketAuto) {
		t.Errorf("unexpected bucketAuto %#v", p[0].Value())
	}

	graph := p[1].Value().(bson.D)
	if graph[len(graph)-1].Key != "maxDepth" || graph[len(graph)-1].Value != int64(2) {
		t.Errorf("unexpected graphLookup %#v", graph)
	}

	wantUnwind := bson.D{{Key: "path", Value: "$paws"}, {Key: "preserveNullAndEmptyArrays", Value: true}}
	if !reflect.DeepEqual(p[2].Value(), wantUnwind) {
		t.Errorf("unexpected unwind %#v", p[2].Value())
	}

	if p[3].Document()[0].Key != "$collStats" || p[5].Value() != "total" {
		t.Errorf("unexpected trailing stages %v", p)
	}
}

func TestDefinitionApplyRejects(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		code  errors.ErrorCode
		field string
	}{
		{"unknown kind", "stages:\n  - frobnicate: {a: 1}\n", errors.ErrCodeInvalidArgument, ""},
		{"limit not a number", "stages:\n  - limit: ten\n", errors.ErrCodeInvalidArgument, "count"},
		{"limit fractional", "stages:\n  - limit: 1.5\n", errors.ErrCodeInvalidArgument, "count"},
		{"limit null", "stages:\n  - limit: null\n", errors.ErrCodeMissingField, "count"},
		{"skip null", "stages:\n  - skip:\n", errors.ErrCodeMissingField, "count"},
		{"count not a string", "stages:\n  - count: 3\n", errors.ErrCodeInvalidArgument, "count"},
		{"match scalar", "stages:\n  - match: black\n", errors.ErrCodeInvalidArgument, ""},
		{"lookup scalar", "stages:\n  - lookup: owners\n", errors.ErrCodeInvalidArgument, ""},
		{"lookup incomplete", "stages:\n  - lookup: {from: owners, localField: a, foreignField: b}\n", errors.ErrCodeMissingField, "as"},
		{"indexStats with parameters", "stages:\n  - indexStats: {foo: 1}\n", errors.ErrCodeInvalidArgument, ""},
		{"indexStats scalar", "stages:\n  - indexStats: all\n", errors.ErrCodeInvalidArgument, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def, err := ParseDefinition([]byte(tc.yaml))
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			b := def.Apply(newBuilder(t))
			if b.Len() != 0 {
				t.Errorf("expected no stages, got %d", b.Len())
			}
			errs := Errors(b.Err())
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %v", b.Err())
			}
			if errs[0].Code != tc.code || errs[0].Field != tc.field {
				t.Errorf("unexpected error %+v", errs[0])
			}
		})
	}
}

func TestDefinitionIndexStats(t *testing.T) {
	def, err := ParseDefinition([]byte("stages:\n  - indexStats: {}\n  - indexStats:\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	b := def.Apply(newBuilder(t))
	if err := b.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.Pipeline().Kinds(); !reflect.DeepEqual(got, []Kind{KindIndexStats, KindIndexStats}) {
		t.Errorf("unexpected kinds %v", got)
	}
}

func TestDefinitionUnknownKindKeepsOthers(t *testing.T) {
	def, err := ParseDefinition([]byte("stages:\n  - match: {a: 1}\n  - bogus: 1\n  - limit: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	b := def.Apply(newBuilder(t))
	if b.Len() != 2 {
		t.Errorf("expected valid stages kept, got %d", b.Len())
	}
	errs := Errors(b.Err())
	if len(errs) != 1 || errs[0].Details["index"] != 1 {
		t.Errorf("expected index detail on unknown stage, got %v", errs)
	}
}

func TestParseDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "stages: [unclosed\n"},
		{"two keys in a stage", "stages:\n  - {match: {a: 1}, limit: 1}\n"},
		{"scalar stage", "stages:\n  - limit\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tc.yaml))
			if !errors.HasCode(err, errors.ErrCodeInvalidDefinition) {
				t.Errorf("expected INVALID_DEFINITION, got %v", err)
			}
		})
	}
}

func TestFileDefinitionLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cats.yml"), []byte("stages:\n  - limit: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("stages: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewFileDefinitionLoader(filepath.Join(dir, "missing"), dir)

	def, err := loader.Load("cats")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if def.Name != "cats" || len(def.Stages) != 1 {
		t.Errorf("unexpected definition %+v", def)
	}

	if _, err := loader.Load("broken"); !errors.HasCode(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("expected parse failure to be reported, got %v", err)
	}
	if _, err := loader.Load("dogs"); !errors.HasCode(err, errors.ErrCodeInvalidDefinition) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLoadDefinitionMissingFile(t *testing.T) {
	if _, err := LoadDefinition(filepath.Join(t.TempDir(), "nope.yaml")); !errors.IsValidation(err) {
		t.Errorf("expected definition error, got %v", err)
	}
}

func TestDefinitionBuild(t *testing.T) {
	def, err := ParseDefinition([]byte(catsDefinition))
	if err != nil {
		t.Fatal(err)
	}

	coll := testutil.NewCollection(bson.M{"name": "Lilly"})
	e, err := def.Build(coll, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, err := e.Exec(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := coll.Pipelines(); len(got) != 1 || len(got[0]) != 7 {
		t.Errorf("unexpected submissions %v", got)
	}

	if _, err := def.Build(testutil.Opaque{}); !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
