// Package whitelist adds many emails to one event's whitelist. A run walks
// its candidates strictly in order; one candidate failing never stops the
// rest.
package whitelist

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/popchain/popchain-core/internal/chainerr"
	"github.com/popchain/popchain-core/internal/ledger"
	"github.com/popchain/popchain-core/internal/submit"
	"github.com/popchain/popchain-core/internal/txbuilder"
)

type Tally struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int
}

// Progress is reported after every candidate.
type Progress struct {
	EventID string
	// Position is the candidate's index in the full input.
	Position  int
	Candidate string
	Succeeded bool
	Error     *chainerr.DecodedError
	Warnings  []string
	Tally     Tally
}

type ProgressFunc func(Progress)

// Submitter is satisfied by *submit.Orchestrator.
type Submitter interface {
	Submit(ctx context.Context, req txbuilder.Request, choice submit.SignerChoice) *submit.Outcome
}

type Option func(*Engine)

func WithLocker(l Locker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

func WithSignerChoice(c submit.SignerChoice) Option {
	return func(e *Engine) {
		e.choice = c
	}
}

type Engine struct {
	submitter Submitter
	locker    Locker
	choice    submit.SignerChoice
	logger    logrus.FieldLogger
}

func NewEngine(s Submitter, logger logrus.FieldLogger, opts ...Option) *Engine {
	e := &Engine{
		submitter: s,
		locker:    NewLocalLocker(),
		choice:    submit.Sponsored(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run whitelists every candidate for eventID. The returned error is only set
// when the run could not start or ctx was canceled; per-candidate failures
// are counted in the tally.
func (e *Engine) Run(ctx context.Context, eventID string, lines []string, onProgress ProgressFunc) (Tally, error) {
	return e.runFrom(ctx, eventID, lines, 0, onProgress)
}

func (e *Engine) runFrom(ctx context.Context, eventID string, lines []string, offset int, onProgress ProgressFunc) (Tally, error) {
	if offset < 0 || offset > len(lines) {
		return Tally{}, errors.Errorf("offset %d out of range 0-%d", offset, len(lines))
	}
	tally := Tally{Total: len(lines) - offset}
	id, err := ledger.ParseAddress(eventID)
	if err != nil {
		return tally, chainerr.New(chainerr.InvalidInput, "invalid event id %q", eventID)
	}

	unlock, err := e.locker.Lock(ctx, id.String())
	if err != nil {
		return tally, err
	}
	defer unlock()

	activeRuns.Inc()
	defer activeRuns.Dec()

	logger := e.logger.WithField("event", eventID)
	logger.WithFields(logrus.Fields{"total": tally.Total, "offset": offset}).Info("Start whitelist run")
	start := time.Now()

	for i := offset; i < len(lines); i++ {
		if err := ctx.Err(); err != nil {
			logger.WithFields(logrus.Fields{"processed": tally.Processed, "next": i}).Warn("Whitelist run canceled")
			return tally, err
		}

		p := e.process(ctx, eventID, lines[i], logger)
		p.EventID = eventID
		p.Position = i
		tally.Processed++
		if p.Succeeded {
			tally.Succeeded++
			itemCounter.WithLabelValues("succeeded").Inc()
		} else {
			tally.Failed++
			itemCounter.WithLabelValues("failed").Inc()
		}
		p.Tally = tally
		if onProgress != nil {
			onProgress(p)
		}
	}

	logger.WithFields(logrus.Fields{
		"processed": tally.Processed,
		"succeeded": tally.Succeeded,
		"failed":    tally.Failed,
		"elapsed":   time.Since(start),
	}).Info("Whitelist run finished")
	return tally, nil
}

func (e *Engine) process(ctx context.Context, eventID string, line string, logger logrus.FieldLogger) Progress {
	candidate := strings.TrimSpace(line)
	p := Progress{Candidate: candidate}

	req, err := txbuilder.NewAddToWhitelist(eventID, candidate)
	if err != nil {
		p.Error = chainerr.Decode(err)
		logger.WithFields(logrus.Fields{"candidate": candidate, "err": err}).Warn("Skip invalid candidate")
		return p
	}

	out := e.submitter.Submit(ctx, req, e.choice)
	p.Warnings = out.Warnings
	for _, w := range out.Warnings {
		logger.WithFields(logrus.Fields{"candidate": candidate, "digest": out.Digest}).Warn(w)
	}
	if !out.Succeeded() {
		p.Error = out.Error
		if p.Error == nil {
			p.Error = chainerr.New(chainerr.Unknown, "submission ended in state %s", out.State)
		}
		logger.WithFields(logrus.Fields{
			"candidate": candidate,
			"category":  p.Error.Category,
			"err":       p.Error.Raw,
		}).Warn("Whitelist candidate failed")
		return p
	}
	p.Succeeded = true
	return p
}
