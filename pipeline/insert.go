// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/vesselflow/core"
	"github.com/poiesic/vesselflow/storage"
)

// Inserter is the write path of the retry policy. Each InsertChunk call
// opens its own store handle, writes the chunk in insert-sized unordered
// bulk sub-batches, and retries the whole attempt with linear backoff.
// After the retry budget is exhausted it degrades, exactly once, to
// reconnecting and inserting records one at a time, tolerating and
// counting individual failures.
type Inserter struct {
	opener      storage.Opener
	collection  string
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// NewInserter creates an inserter for one target collection.
// batchSize: bulk-insert sub-batch size (smaller than the chunk size, to
// respect store message-size limits)
// maxAttempts: bulk retry budget
// baseDelay: base delay for linear backoff
func NewInserter(opener storage.Opener, collection string, batchSize, maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *Inserter {
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inserter{
		opener:      opener,
		collection:  collection,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

// InsertChunk writes one chunk of records. Returns the count the store
// accepted. The error is non-nil only when the fallback path itself could
// not run; duplicate writes from retried attempts are tolerated by design
// (at-least-once semantics).
func (i *Inserter) InsertChunk(ctx context.Context, records []*core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var written int
	err := RetryWithBackoff(ctx, func() error {
		n, attemptErr := i.attempt(ctx, records)
		if attemptErr != nil {
			return attemptErr
		}
		written = n
		return nil
	}, i.maxAttempts, i.baseDelay)

	if err == nil {
		return written, nil
	}
	if ctx.Err() != nil {
		return 0, err
	}

	i.logger.Warn("bulk retry budget exhausted, falling back to per-record inserts",
		"collection", i.collection, "records", len(records), "error", err)

	return i.fallback(ctx, records)
}

// attempt opens a fresh handle and writes every sub-batch. The handle is
// discarded afterwards, so a retry after a dropped connection starts clean.
func (i *Inserter) attempt(ctx context.Context, records []*core.Record) (int, error) {
	st, err := i.opener.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	written := 0
	for start := 0; start < len(records); start += i.batchSize {
		end := min(start+i.batchSize, len(records))
		n, err := st.BulkInsert(ctx, i.collection, records[start:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// fallback reconnects and salvages the chunk record by record. Individual
// failures are counted and skipped, never raised. Runs at most once per
// chunk.
func (i *Inserter) fallback(ctx context.Context, records []*core.Record) (int, error) {
	st, err := i.opener.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("fallback reconnect failed: %w", err)
	}
	defer st.Close()

	salvaged := 0
	failed := 0
	for _, record := range records {
		if ctx.Err() != nil {
			return salvaged, ctx.Err()
		}
		if err := st.InsertOne(ctx, i.collection, record); err != nil {
			failed++
			continue
		}
		salvaged++
	}

	i.logger.Info("per-record fallback finished",
		"collection", i.collection, "salvaged", salvaged, "failed", failed)
	if salvaged == 0 && failed > 0 {
		return 0, fmt.Errorf("%w: fallback salvaged nothing (%d records failed)", storage.ErrWriteFailed, failed)
	}
	return salvaged, nil
}
