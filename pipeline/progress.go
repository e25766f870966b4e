package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Tracker tracks and reports throughput of a pipeline run. Unlike a fixed
// progress bar, the total is usually unknown up front (the chunker streams),
// so it reports absolute counts and rows/second since start.
type Tracker struct {
	writer         io.Writer
	reportInterval int
	current        int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewTracker creates a throughput tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N rows
func NewTracker(writer io.Writer, reportInterval int) *Tracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &Tracker{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// Start begins tracking.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = time.Now()
	t.started = true
	t.current = 0
	t.lastReported = 0
}

// Add increases the row count by delta, emitting a progress line whenever
// a report interval has been crossed.
func (t *Tracker) Add(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}

	t.current += delta
	if t.current-t.lastReported >= t.reportInterval {
		t.report()
		t.lastReported = t.current
	}
}

// Finish emits a final progress line.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}
	t.report()
}

// Elapsed returns the time elapsed since Start was called.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return 0
	}
	return time.Since(t.startTime)
}

// Rate returns rows per second since start.
func (t *Tracker) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return 0
	}
	secs := time.Since(t.startTime).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(t.current) / secs
}

// report prints the current progress. Must be called with lock held.
func (t *Tracker) report() {
	elapsed := time.Since(t.startTime)
	rate := 0.0
	if elapsed.Seconds() > 0 {
		rate = float64(t.current) / elapsed.Seconds()
	}
	fmt.Fprintf(t.writer, "Progress: %d rows in %.2fs (%.1f rows/s)\n",
		t.current, elapsed.Seconds(), rate)
}
