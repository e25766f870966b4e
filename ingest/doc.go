// Package ingest provides the raw ingestion pipeline: a streaming CSV
// chunker and the batch coordinator that feeds chunks to the worker pool
// in bounded super-batches.
//
// The Chunker owns all row-ceiling and truncation arithmetic. The
// coordinator blocks at the end of each super-batch, aggregates immutable
// per-chunk results as the sole mutator of the run totals, and reports
// throughput as rows arrive.
package ingest
