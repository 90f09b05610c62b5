// Package dataprocessing implements the snapshot pipeline that turns raw
// regional COVID snapshot rows into the immutable derived dataset served by
// the query engine.
//
// # Architecture
//
// The package is organized as a strict three-stage pipeline:
//
//  1. Normalizer: coerces raw timestamps to calendar dates, drops rows it
//     cannot parse
//  2. Aggregator: collapses same-day regional snapshots into one daily total
//     per country
//  3. Deriver: computes the modeled recovered/active metrics
//
// # Data Flow
//
//	Snapshot files → Loader → RawSnapshot → Normalizer → NormalizedRecord →
//	Aggregator → DailyCountryRecord → Deriver → DerivedRecord → Dataset
//
// The pipeline runs once at process startup. BuildDataset returns a value
// that is never mutated afterwards, so the query layer can read it from any
// number of goroutines without locking.
//
// # Error Handling
//
// Individual malformed rows are a tolerated data-quality condition: they are
// excluded, counted in LoadStats, and reported on the rows-excluded metric,
// never surfaced as errors. Producing no usable rows at all is fatal and is
// reported as ErrNoUsableData.
package dataprocessing
