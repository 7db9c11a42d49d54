package whitelist

import (
	"context"

	"github.com/gammazero/workerpool"
)

type Batch struct {
	EventID string
	Lines   []string
}

type BatchResult struct {
	EventID string
	Tally   Tally
	Err     error
}

// RunMany runs batches for different events in parallel. Batches naming the
// same event are serialized by the locker, so the later one fails with
// ErrLocked.
func (e *Engine) RunMany(ctx context.Context, batches []Batch, concurrency int, onProgress ProgressFunc) []BatchResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]BatchResult, len(batches))
	wp := workerpool.New(concurrency)
	for i, b := range batches {
		i, b := i, b
		wp.Submit(func() {
			tally, err := e.Run(ctx, b.EventID, b.Lines, onProgress)
			results[i] = BatchResult{EventID: b.EventID, Tally: tally, Err: err}
		})
	}
	wp.StopWait()
	return results
}
