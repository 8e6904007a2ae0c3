// Package resilience retries aggregate calls that fail for transient
// reasons such as dropped connections or server failovers.
//
// Retrying is a property of the collection, not of the pipeline. Wrap the
// handle before building:
//
//	coll := resilience.NewCollection(mongoColl, resilience.DefaultRetryConfig(), log)
//	b, err := aggregate.New(coll)
//
// The error of the final attempt is returned unchanged.
package resilience
