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


package filter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/vesselflow/core"
	"github.com/poiesic/vesselflow/pipeline"
	"github.com/poiesic/vesselflow/storage"
)

// Config holds configuration for a filtering run.
type Config struct {
	// SourceCollection holds the raw ingested records.
	SourceCollection string

	// TargetCollection receives validated records. It is dropped and
	// rebuilt on every run.
	TargetCollection string

	// MinObservations is the per-vessel retention threshold: vessel groups
	// with fewer records are dropped entirely.
	MinObservations int

	// Workers is the fixed worker pool size.
	Workers int

	// InsertBatchSize is the bulk-insert sub-batch size for survivors.
	InsertBatchSize int

	// MaxRetries is the retry budget for both reads and writes.
	MaxRetries int

	// RetryDelay is the base delay for linear backoff.
	RetryDelay time.Duration

	// ReportInterval is how often to report throughput (number of rows).
	ReportInterval int
}

// DefaultConfig returns a Config with the defaults used against the
// production cluster.
func DefaultConfig() *Config {
	return &Config{
		SourceCollection: "raw_data",
		TargetCollection: "filtered_data",
		MinObservations:  100,
		Workers:          4,
		InsertBatchSize:  500,
		MaxRetries:       3,
		RetryDelay:       5 * time.Second,
		ReportInterval:   100000,
	}
}

// Filter is the per-vessel filtering pipeline. It partitions the distinct
// vessel keys into batches, hands each batch to a worker, and rewrites the
// surviving records into the target collection.
//
// A vessel group only exists inside the worker processing it: the group is
// fetched, filtered, written, and discarded before the worker moves on.
type Filter struct {
	opener   storage.Opener
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewFilter creates a filter.
// progress: where to write progress and summary output (typically os.Stderr)
func NewFilter(opener storage.Opener, config *Config, progress io.Writer) *Filter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Filter{
		opener:   opener,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("run_id", uuid.NewString()),
	}
}

// Run executes the filtering pipeline. An unreachable store is fatal, as is
// failing to enumerate the distinct vessel keys; after that point failures
// are contained per vessel batch and the run always completes with totals.
func (f *Filter) Run(ctx context.Context) (*pipeline.Totals, error) {
	mmsis, err := f.prepare(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(f.progress, "Found %d distinct vessel IDs\n", len(mmsis))
	if len(mmsis) == 0 {
		return &pipeline.Totals{}, nil
	}

	batches := keyBatches(mmsis, f.config.Workers)
	fmt.Fprintf(f.progress, "Processing in %d batches with %d workers...\n",
		len(batches), f.config.Workers)
	f.logger.Info("starting filter run",
		"vessels", len(mmsis), "batches", len(batches), "workers", f.config.Workers)

	pool, err := pipeline.NewPool(f.config.Workers, pipeline.WithLogger(f.logger))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	inserter := pipeline.NewInserter(f.opener, f.config.TargetCollection,
		f.config.InsertBatchSize, f.config.MaxRetries, f.config.RetryDelay, f.logger)

	tracker := pipeline.NewTracker(f.progress, f.config.ReportInterval)
	tracker.Start()

	tasks := make([]pipeline.Task, len(batches))
	for i, batch := range batches {
		batch := batch
		tasks[i] = func(ctx context.Context) pipeline.ChunkResult {
			return f.processBatch(ctx, inserter, batch)
		}
	}

	totals := &pipeline.Totals{}
	for result := range pool.Run(ctx, tasks) {
		totals.Add(result)
		tracker.Add(result.RowsWritten)
		if result.Err != nil {
			f.logger.Error("vessel batch failed terminally", "error", result.Err)
		}
	}

	tracker.Finish()
	f.summarize(totals, tracker, len(mmsis))

	if err := ctx.Err(); err != nil {
		return totals, err
	}
	return totals, nil
}

// prepare verifies the store, rebuilds the target collection and indexes,
// and enumerates the distinct vessel keys.
func (f *Filter) prepare(ctx context.Context) ([]string, error) {
	st, err := f.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if err := st.Drop(ctx, f.config.TargetCollection); err != nil {
		return nil, err
	}
	f.logger.Info("dropped existing target collection", "collection", f.config.TargetCollection)

	if err := st.CreateIndex(ctx, f.config.SourceCollection, core.KeyField); err != nil {
		return nil, err
	}
	if err := st.CreateIndex(ctx, f.config.TargetCollection, core.KeyField); err != nil {
		return nil, err
	}
	if err := st.CreateIndex(ctx, f.config.TargetCollection, core.TimestampField); err != nil {
		return nil, err
	}

	return st.DistinctKeys(ctx, f.config.SourceCollection, core.KeyField)
}

// processBatch handles one batch of vessel keys: fetch the group, apply
// the retention and required-field rules, write the survivors.
func (f *Filter) processBatch(ctx context.Context, inserter *pipeline.Inserter, mmsis []string) pipeline.ChunkResult {
	var result pipeline.ChunkResult

	for _, mmsi := range mmsis {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}

		group, err := f.fetchVessel(ctx, mmsi)
		if err != nil {
			// The vessel was never examined; it must surface as a failure,
			// not blend into the dropped count.
			result.Err = err
			continue
		}
		result.RowsSeen += len(group)

		if len(group) < f.config.MinObservations {
			result.GroupsDropped++
			continue
		}

		valid := group[:0:0]
		for _, record := range group {
			// The raw collection's synthetic document ID must not follow
			// the record into the target collection.
			delete(record.Extra, "_id")

			if err := core.Validate(record); err != nil {
				continue // a filtering decision, not a failure
			}
			valid = append(valid, record)
		}

		if len(valid) == 0 {
			result.GroupsDropped++
			continue
		}

		written, err := inserter.InsertChunk(ctx, valid)
		result.RowsWritten += written
		if err != nil {
			result.Err = err
			continue
		}
		result.GroupsRetained++
	}

	return result
}

// fetchVessel reads all records for one vessel key, retrying on a fresh
// connection each attempt. This is the read path of the retry policy:
// after exhaustion the vessel is reported as failed, never silently
// treated as empty.
func (f *Filter) fetchVessel(ctx context.Context, mmsi string) ([]*core.Record, error) {
	var group []*core.Record
	err := pipeline.RetryWithBackoff(ctx, func() error {
		st, err := f.opener.Open(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		group, err = st.FindByKey(ctx, f.config.SourceCollection, core.KeyField, mmsi, 0)
		return err
	}, f.config.MaxRetries, f.config.RetryDelay)

	if err != nil {
		f.logger.Error("giving up on vessel after retries", "mmsi", mmsi, "error", err)
		return nil, fmt.Errorf("fetching vessel %s: %w", mmsi, err)
	}
	return group, nil
}

// keyBatches splits the vessel keys into roughly workers*2 batches so the
// pool stays load balanced even when group sizes are skewed.
func keyBatches(keys []string, workers int) [][]string {
	if workers < 1 {
		workers = 1
	}
	size := len(keys) / (workers * 2)
	if size < 1 {
		size = 1
	}

	var batches [][]string
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		batches = append(batches, keys[start:end])
	}
	return batches
}

func (f *Filter) summarize(totals *pipeline.Totals, tracker *pipeline.Tracker, vessels int) {
	fmt.Fprintf(f.progress, "\nFiltering Results:\n")
	fmt.Fprintf(f.progress, "Vessels processed: %d\n", vessels)
	fmt.Fprintf(f.progress, "Vessels with >=%d data points: %d\n",
		f.config.MinObservations, totals.GroupsRetained)
	fmt.Fprintf(f.progress, "Total documents: %d\n", totals.RowsSeen)
	fmt.Fprintf(f.progress, "Filtered documents: %d\n", totals.RowsWritten)
	if totals.RowsSeen > 0 {
		fmt.Fprintf(f.progress, "Reduction: %.2f%%\n", totals.Reduction())
	}
	fmt.Fprintf(f.progress, "Total processing time: %.2f seconds\n", tracker.Elapsed().Seconds())

	f.logger.Info("filter run complete",
		"vessels", vessels,
		"vessels_retained", totals.GroupsRetained,
		"vessels_dropped", totals.GroupsDropped,
		"rows_seen", totals.RowsSeen,
		"rows_written", totals.RowsWritten,
		"failed_batches", totals.FailedChunks,
	)
}
