package whitelist

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type StartOptions struct {
	// Offset skips candidates a previous job already processed.
	Offset int

	// Progress, when set, is subscribed before the run starts and
	// unsubscribed once it ends.
	Progress chan<- Progress
}

// Job is a run in the background. Progress is published on a feed;
// subscribers must keep receiving or the run stalls.
type Job struct {
	ID      string
	EventID string

	offset int
	feed   event.Feed
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.RWMutex
	tally Tally
	err   error
}

func (e *Engine) Start(ctx context.Context, eventID string, lines []string, opts StartOptions) (*Job, error) {
	if opts.Offset < 0 || opts.Offset > len(lines) {
		return nil, errors.Errorf("offset %d out of range 0-%d", opts.Offset, len(lines))
	}
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		ID:      uuid.NewString(),
		EventID: eventID,
		offset:  opts.Offset,
		cancel:  cancel,
		done:    make(chan struct{}),
		tally:   Tally{Total: len(lines) - opts.Offset},
	}

	var sub event.Subscription
	if opts.Progress != nil {
		sub = j.feed.Subscribe(opts.Progress)
	}

	go func() {
		defer close(j.done)
		defer cancel()
		if sub != nil {
			defer sub.Unsubscribe()
		}
		tally, err := e.runFrom(ctx, eventID, lines, opts.Offset, func(p Progress) {
			j.mu.Lock()
			j.tally = p.Tally
			j.mu.Unlock()
			j.feed.Send(p)
		})
		j.mu.Lock()
		j.tally = tally
		j.err = err
		j.mu.Unlock()
	}()
	return j, nil
}

func (j *Job) SubscribeProgress(ch chan<- Progress) event.Subscription {
	return j.feed.Subscribe(ch)
}

func (j *Job) Tally() Tally {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.tally
}

// Next is the offset a follow-up job resumes from.
func (j *Job) Next() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.offset + j.tally.Processed
}

func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) Wait() (Tally, error) {
	<-j.done
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.tally, j.err
}
