package testutil

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Call is one recorded Aggregate invocation.
type Call struct {
	Pipeline any
	Options  []*options.AggregateOptions
}

// Collection is an in-memory stand-in for *mongo.Collection. It is safe
// for concurrent use.
type Collection struct {
	mu        sync.Mutex
	documents []any
	err       error
	calls     []Call
}

// NewCollection creates a fake returning docs from every Aggregate call.
func NewCollection(docs ...any) *Collection {
	return &Collection{documents: docs}
}

// FailingCollection creates a fake whose Aggregate calls fail with err.
func FailingCollection(err error) *Collection {
	return &Collection{err: err}
}

// Aggregate records the call and returns a cursor over the canned documents,
// or the canned error.
func (c *Collection) Aggregate(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Pipeline: pipeline, Options: opts})
	docs := append([]any(nil), c.documents...)
	err := c.err
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

// SetDocuments replaces the canned documents.
func (c *Collection) SetDocuments(docs ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.documents = docs
}

// SetError makes subsequent calls fail with err; nil clears it.
func (c *Collection) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Calls returns the recorded invocations in order.
func (c *Collection) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Pipelines returns the submitted pipelines that were of type
// mongo.Pipeline, in order.
func (c *Collection) Pipelines() []mongo.Pipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]mongo.Pipeline, 0, len(c.calls))
	for _, call := range c.calls {
		if p, ok := call.Pipeline.(mongo.Pipeline); ok {
			out = append(out, p)
		}
	}
	return out
}

// Reset clears recorded calls and canned responses.
func (c *Collection) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
	c.documents = nil
	c.err = nil
	return nil
}

type snapshot struct {
	documents []any
	err       error
	calls     []Call
}

// Snapshot captures the canned responses and recorded calls.
func (c *Collection) Snapshot(ctx context.Context) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot{
		documents: append([]any(nil), c.documents...),
		err:       c.err,
		calls:     append([]Call(nil), c.calls...),
	}, nil
}

// Restore returns the fake to a state captured by Snapshot.
func (c *Collection) Restore(ctx context.Context, s interface{}) error {
	snap, ok := s.(snapshot)
	if !ok {
		return errInvalidSnapshot
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.documents = append([]any(nil), snap.documents...)
	c.err = snap.err
	c.calls = append([]Call(nil), snap.calls...)
	return nil
}

// Opaque is a handle that cannot run aggregations.
type Opaque struct {
	Name string
}
