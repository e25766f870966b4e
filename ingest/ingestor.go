package ingest

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

// Config holds configuration for a raw ingestion run.
type Config struct {
	// Collection is the target collection for unfiltered records.
	Collection string

	// Workers is the fixed worker pool size.
	Workers int

	// SuperBatchSize caps how many chunks are held in flight at once.
	SuperBatchSize int

	// InsertBatchSize is the bulk-insert sub-batch size.
	InsertBatchSize int

	// MaxRetries is the bulk retry budget per chunk.
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
		Collection:      "raw_data",
		Workers:         4,
		SuperBatchSize:  10,
		InsertBatchSize: 500,
		MaxRetries:      3,
		RetryDelay:      5 * time.Second,
		ReportInterval:  100000,
	}
}

// Ingestor is the batch coordinator of the raw ingestion pipeline. It
// consumes the Chunker's sequence in super-batches, dispatches chunks to
// the worker pool as pass-through writes, and is the sole mutator of the
// aggregate counters.
type Ingestor struct {
	opener   storage.Opener
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewIngestor creates an ingestor.
// progress: where to write progress and summary output (typically os.Stderr)
func NewIngestor(opener storage.Opener, config *Config, progress io.Writer) *Ingestor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Ingestor{
		opener:   opener,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("run_id", uuid.NewString()),
	}
}

// Run executes the ingestion. A store that is unreachable at startup is
// fatal; after that point every failure is contained at the chunk boundary
// and folded into the returned totals, so the run always completes and
// reports, favoring partial success over total failure.
func (ing *Ingestor) Run(ctx context.Context, chunker *Chunker) (*pipeline.Totals, error) {
	// Verify the store before reading anything, and index the vessel key
	// up front so queries stay usable while data loads.
	st, err := ing.opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.CreateIndex(ctx, ing.config.Collection, core.KeyField); err != nil {
		st.Close()
		return nil, err
	}
	st.Close()
	ing.logger.Info("store connection verified", "collection", ing.config.Collection)

	pool, err := pipeline.NewPool(ing.config.Workers, pipeline.WithLogger(ing.logger))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	inserter := pipeline.NewInserter(ing.opener, ing.config.Collection,
		ing.config.InsertBatchSize, ing.config.MaxRetries, ing.config.RetryDelay, ing.logger)

	tracker := pipeline.NewTracker(ing.progress, ing.config.ReportInterval)
	tracker.Start()

	totals := &pipeline.Totals{}
	batch := 0

	for {
		chunks, done := ing.nextSuperBatch(chunker)
		if len(chunks) == 0 {
			break
		}
		batch++
		ing.logger.Info("processing super-batch", "batch", batch, "chunks", len(chunks))

		tasks := make([]pipeline.Task, len(chunks))
		for i, chunk := range chunks {
			chunk := chunk
			tasks[i] = func(ctx context.Context) pipeline.ChunkResult {
				written, err := inserter.InsertChunk(ctx, chunk)
				return pipeline.ChunkResult{
					RowsSeen:    len(chunk),
					RowsWritten: written,
					Err:         err,
				}
			}
		}

		// Block until the whole super-batch completes; completion order is
		// arbitrary.
		for result := range pool.Run(ctx, tasks) {
			totals.Add(result)
			tracker.Add(result.RowsWritten)
			if result.Err != nil {
				ing.logger.Error("chunk failed terminally", "error", result.Err)
			}
		}

		if done || ctx.Err() != nil {
			break
		}
	}

	tracker.Finish()
	ing.summarize(totals, tracker, chunker)

	if err := ctx.Err(); err != nil {
		return totals, err
	}
	return totals, nil
}

// nextSuperBatch reads up to SuperBatchSize chunks, bounding in-flight
// memory. done reports that the chunker is exhausted.
func (ing *Ingestor) nextSuperBatch(chunker *Chunker) (chunks [][]*core.Record, done bool) {
	for len(chunks) < ing.config.SuperBatchSize {
		chunk, err := chunker.Next()
		if err == io.EOF {
			return chunks, true
		}
		chunks = append(chunks, chunk)
	}
	return chunks, false
}

func (ing *Ingestor) summarize(totals *pipeline.Totals, tracker *pipeline.Tracker, chunker *Chunker) {
	elapsed := tracker.Elapsed()
	fmt.Fprintf(ing.progress, "Total rows inserted: %d\n", totals.RowsWritten)
	fmt.Fprintf(ing.progress, "Total time: %.2f seconds (%.2f minutes)\n",
		elapsed.Seconds(), elapsed.Minutes())
	fmt.Fprintf(ing.progress, "Insertion rate: %.2f documents per second\n", tracker.Rate())
	if totals.FailedChunks > 0 {
		fmt.Fprintf(ing.progress, "Chunks failed terminally: %d of %d\n", totals.FailedChunks, totals.Chunks)
	}
	if chunker.BadRows() > 0 {
		fmt.Fprintf(ing.progress, "Malformed rows skipped: %d\n", chunker.BadRows())
	}

	ing.logger.Info("ingestion complete",
		"rows_seen", totals.RowsSeen,
		"rows_written", totals.RowsWritten,
		"chunks", totals.Chunks,
		"failed_chunks", totals.FailedChunks,
		"elapsed", elapsed.Round(time.Millisecond),
	)
}
