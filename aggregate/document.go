package aggregate

import (
	"fmt"
	"reflect"
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kbukum/aggkit/util"
)

var errNotDocument = fmt.Errorf("value is not a document")

// toDocument normalizes a document-like value into an ordered bson.D.
// String-keyed maps are emitted in ascending key order; use bson.D where
// field order matters, as in $sort.
func toDocument(v any) (bson.D, error) {
	switch t := v.(type) {
	case bson.D:
		return append(bson.D{}, t...), nil
	case bson.M:
		return mapDocument(t), nil
	case map[string]any:
		return mapDocument(t), nil
	case bson.Raw:
		var d bson.D
		if err := bson.Unmarshal(t, &d); err != nil {
			return nil, err
		}
		return d, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, errNotDocument
		}
		return reflectMapDocument(rv), nil
	case reflect.Struct:
		data, err := bson.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errNotDocument, err)
		}
		var d bson.D
		if err := bson.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, errNotDocument
}

func mapDocument(m map[string]any) bson.D {
	d := make(bson.D, 0, len(m))
	for _, k := range util.SortedKeys(m) {
		d = append(d, bson.E{Key: k, Value: m[k]})
	}
	return d
}

func reflectMapDocument(rv reflect.Value) bson.D {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k.String(), Value: rv.MapIndex(k).Interface()})
	}
	return d
}

// sanitize drops top-level entries whose value is nil, NaN or the empty
// string. Nested documents are left untouched.
func sanitize(d bson.D) bson.D {
	out := make(bson.D, 0, len(d))
	for _, e := range d {
		if util.IsAbsent(e.Value) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// appendIfSet appends key/value unless the value is nil or the empty string.
func appendIfSet(d bson.D, key string, v any) bson.D {
	if util.IsNil(v) {
		return d
	}
	if s, ok := v.(string); ok && s == "" {
		return d
	}
	return append(d, bson.E{Key: key, Value: v})
}

// cloneValue deep-copies the documents, arrays, maps, slices and pointers
// reachable from v, preserving their types. Scalars and other structs are
// copied by value.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bson.D:
		if t == nil {
			return t
		}
		out := make(bson.D, len(t))
		for i, e := range t {
			out[i] = bson.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return out
	case bson.E:
		return bson.E{Key: t.Key, Value: cloneValue(t.Value)}
	case bson.A:
		if t == nil {
			return t
		}
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case bson.M:
		if t == nil {
			return t
		}
		out := make(bson.M, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case bson.Raw:
		return append(bson.Raw(nil), t...)
	case Pipeline:
		return t.Clone()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Ptr:
		return cloneReflect(rv).Interface()
	}
	return v
}

func cloneReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return reflect.Zero(rv.Type())
		}
		return reflect.ValueOf(cloneValue(rv.Interface()))
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value()))
		}
		return out
	case reflect.Ptr:
		if rv.IsNil() {
			return rv
		}
		out := reflect.New(rv.Type().Elem())
		out.Elem().Set(cloneElem(rv.Elem()))
		return out
	}
	return rv
}

// cloneElem copies an element so it can be stored back into a container of
// the same element type.
func cloneElem(rv reflect.Value) reflect.Value {
	if rv.Kind() == reflect.Interface {
		return cloneReflect(rv)
	}
	if !rv.CanInterface() {
		return rv
	}
	c := reflect.ValueOf(cloneValue(rv.Interface()))
	if !c.IsValid() || c.Type() != rv.Type() {
		return rv
	}
	return c
}
