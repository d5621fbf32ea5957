// Package prediction drives the reactive category-prediction pipeline:
// every qualifying amount edit issues a new classifier request, and only
// the response for the most recent edit may update the visible state.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// State is the fetcher's visible lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidAmount is reported synchronously when the input fails
	// numeric coercion; no request is issued and the fetcher stays idle.
	ErrInvalidAmount = errors.New("please enter a valid number")

	// ErrPredictionUnavailable is the terminal error when the remote
	// classifier call fails.
	ErrPredictionUnavailable = errors.New("error getting prediction")
)

// Predictor is the remote classifier port.
type Predictor interface {
	PredictCategory(ctx context.Context, amount float64, date *time.Time) (core.CategoryPrediction, error)
}

// Snapshot is a copy of the fetcher's state safe to render from.
type Snapshot struct {
	State      State
	Prediction core.CategoryPrediction
	Err        error
}

// Fetcher owns the prediction state machine. Requests are tagged with a
// monotonically increasing sequence number; a response whose sequence no
// longer matches the latest input is discarded silently, so completion
// order never matters (last-input-wins).
type Fetcher struct {
	predictor Predictor
	logger    *log.Logger
	onChange  func(Snapshot)

	mu         sync.Mutex
	seq        uint64
	state      State
	prediction core.CategoryPrediction
	err        error
}

// NewFetcher creates a fetcher. onChange, if non-nil, is invoked after
// every state transition with a snapshot; it must not call back into the
// fetcher.
func NewFetcher(p Predictor, logger *log.Logger, onChange func(Snapshot)) *Fetcher {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Fetcher{
		predictor: p,
		logger:    logger.WithComponent(log.ComponentPrediction),
		onChange:  onChange,
	}
}

// SetAmount reacts to an amount edit. An empty or zero amount returns the
// fetcher to idle without a request. A non-numeric amount also stays idle
// and reports ErrInvalidAmount to the caller. Otherwise the absolute value
// is sent to the classifier and the fetcher enters loading.
func (f *Fetcher) SetAmount(ctx context.Context, raw string, date *time.Time) error {
	if raw == "" {
		f.reset()
		return nil
	}

	amount, err := core.ParseAmount(raw)
	if err != nil {
		f.reset()
		return ErrInvalidAmount
	}

	amount = math.Abs(amount)
	if amount == 0 {
		f.reset()
		return nil
	}

	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.state = StateLoading
	f.err = nil
	f.mu.Unlock()
	f.notify()

	go f.fetch(ctx, seq, amount, date)
	return nil
}

func (f *Fetcher) fetch(ctx context.Context, seq uint64, amount float64, date *time.Time) {
	pred, err := f.predictor.PredictCategory(ctx, amount, date)

	f.mu.Lock()
	if seq != f.seq {
		// A newer edit superseded this request; its result must not
		// overwrite the displayed state.
		f.mu.Unlock()
		f.logger.Debug("Discarded stale prediction",
			log.FieldSequence, seq,
			log.FieldAmount, amount)
		return
	}
	if err != nil {
		f.state = StateError
		f.err = fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
		f.prediction = core.CategoryPrediction{}
	} else {
		f.state = StateSuccess
		f.err = nil
		f.prediction = pred
	}
	f.mu.Unlock()
	f.notify()
}

// Reset returns the fetcher to idle. Any in-flight result is invalidated
// and will be ignored when it arrives; transport-level cancellation is
// left to the caller's context.
func (f *Fetcher) Reset() {
	f.reset()
}

func (f *Fetcher) reset() {
	f.mu.Lock()
	f.seq++
	f.state = StateIdle
	f.err = nil
	f.prediction = core.CategoryPrediction{}
	f.mu.Unlock()
	f.notify()
}

// Snapshot returns a copy of the current state.
func (f *Fetcher) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{State: f.state, Prediction: f.prediction, Err: f.err}
}

func (f *Fetcher) notify() {
	if f.onChange != nil {
		f.onChange(f.Snapshot())
	}
}
