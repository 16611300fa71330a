// Package sqlite persists batch runs and per-video results.
//
// A run records when a batch started and finished and the settings it used.
// Each video result keeps its metadata, the body and head sizes with their
// source, any error, and the metric values in report order. NaN metrics are
// stored as NULL. The schema is versioned with golang-migrate; migrations
// are embedded in the binary.
package sqlite
