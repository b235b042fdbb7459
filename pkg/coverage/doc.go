// Package coverage turns per-line hit counts into uncovered line ranges and
// rolls per-file metrics up into a package-level summary.
//
// All values produced here are immutable after construction and safe to share
// across goroutines.
package coverage
