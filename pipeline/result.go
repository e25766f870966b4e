package pipeline

// ChunkResult is the immutable outcome of one unit of parallel work.
// Workers return it; only the coordinator folds it into shared totals.
type ChunkResult struct {
	// RowsSeen is how many records the worker examined.
	RowsSeen int

	// RowsWritten is how many records the store accepted, including any
	// salvaged by the per-record fallback.
	RowsWritten int

	// GroupsRetained and GroupsDropped count vessel groups kept or
	// discarded by the minimum-observations rule. Zero for the raw
	// ingestion pipeline, which has no grouping.
	GroupsRetained int
	GroupsDropped  int

	// Err is the terminal failure for this chunk, after retries and the
	// fallback both gave up. A chunk with Err still counts toward totals;
	// it never aborts the run.
	Err error
}

// Totals are the process-wide accumulators for one pipeline run. The
// coordinator is the sole mutator, so no locking is needed.
type Totals struct {
	Chunks         int
	FailedChunks   int
	RowsSeen       int
	RowsWritten    int
	GroupsRetained int
	GroupsDropped  int
}

// Add folds one chunk result into the totals.
func (t *Totals) Add(r ChunkResult) {
	t.Chunks++
	t.RowsSeen += r.RowsSeen
	t.RowsWritten += r.RowsWritten
	t.GroupsRetained += r.GroupsRetained
	t.GroupsDropped += r.GroupsDropped
	if r.Err != nil {
		t.FailedChunks++
	}
}

// Reduction returns the percentage of rows removed between seen and
// written. Zero when nothing was seen.
func (t *Totals) Reduction() float64 {
	if t.RowsSeen == 0 {
		return 0
	}
	return float64(t.RowsSeen-t.RowsWritten) / float64(t.RowsSeen) * 100.0
}
