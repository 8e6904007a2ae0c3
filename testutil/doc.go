// Package testutil provides test doubles for code that builds and runs
// aggregation pipelines.
//
// Collection stands in for a driver collection. It records every submitted
// pipeline and answers with canned documents or a canned error:
//
//	coll := testutil.NewCollection(bson.M{"name": "Lilly"})
//	b, _ := aggregate.New(coll)
//	docs, err := b.Match(bson.M{"color": "black"}).BuildAndExec(ctx)
//	// coll.Pipelines()[0] holds the submitted stages
//
// Like other test components it supports Reset, Snapshot and Restore so a
// single fake can be shared across sub-tests.
//
// Opaque is a handle without the aggregation capability.
package testutil
