// Package pipeline runs the fetch, normalize and persist stages that turn a
// raw source into the canonical dataset.
//
// Each stage publishes started and completed (or failed) events to an
// EventSink, runs inside its own span and records its duration. Row
// counters are recorded after normalization.
package pipeline
