// Package filter provides the per-vessel filtering pipeline: it reads the
// raw collection one vessel group at a time, drops vessels with too few
// observations, skips records missing required fields, and rewrites the
// survivors into the filtered collection.
//
// Validation skips are deliberate filtering decisions, counted in the run
// totals but never logged as failures.
package filter
