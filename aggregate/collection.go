package aggregate

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kbukum/aggkit/errors"
	"github.com/kbukum/aggkit/util"
)

// Collection is the capability a handle needs to run pipelines.
// *mongo.Collection satisfies it.
type Collection interface {
	Aggregate(ctx context.Context, pipeline any, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
}

var _ Collection = (*mongo.Collection)(nil)

const msgNotCollection = "handle is not a valid aggregation-capable collection"

// asCollection reports whether handle can run aggregations. Nil handles and
// typed nil pointers cannot.
func asCollection(handle any) (Collection, bool) {
	if util.IsNil(handle) {
		return nil, false
	}
	coll, ok := handle.(Collection)
	return coll, ok
}

func errNotCollection(handle any) *errors.AppError {
	return errors.Configuration(msgNotCollection).WithDetail("type", fmt.Sprintf("%T", handle))
}
