// Package pipeline provides the shared machinery of the ingestion and
// filtering pipelines: the bounded retry policy with linear backoff and a
// degraded per-record fallback, the chunk inserter, the fixed-size worker
// pool, per-chunk result counters, and throughput tracking.
//
// Workers race; results are streamed in completion order and consumers must
// not assume it matches submission order. A worker panic is contained at
// the chunk boundary and surfaces as a zero-result with an error; it never
// kills the pool.
package pipeline
