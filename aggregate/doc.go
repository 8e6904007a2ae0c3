// Package aggregate builds MongoDB aggregation pipelines through a fluent,
// validating API and runs them later through an Executor.
//
// Each stage method checks the syntactic shape of its parameters, drops
// nil, NaN and empty-string values when sanitizing is enabled, and appends
// one stage. Rejected calls append nothing; their errors surface from
// Builder.Err and Builder.Build.
//
//	b, err := aggregate.New(db.Collection("cats"))
//	if err != nil {
//	    return err
//	}
//	exec, err := b.
//	    Match(bson.M{"color": "black"}).
//	    Project(bson.D{{Key: "_id", Value: false}, {Key: "name", Value: true}}).
//	    Limit(1).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	docs, err := exec.Print().Exec(ctx)
//
// Stage semantics are not interpreted; the server remains the authority on
// whether a pipeline makes sense.
//
// Executors submit each run exactly once. To retry transient failures, wrap
// the collection with resilience.NewCollection before calling New.
//
// Pipelines may also be described in YAML and loaded with LoadDefinition or
// a FileDefinitionLoader.
package aggregate
