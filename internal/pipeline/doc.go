// Package pipeline wires the collector, the enrichment pass and storage into
// a single run.
package pipeline
