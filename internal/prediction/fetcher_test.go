package prediction

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

type fakeCall struct {
	amount  float64
	release chan struct{}
	result  core.CategoryPrediction
	err     error
}

type fakePredictor struct {
	started chan *fakeCall
}

func newFakePredictor() *fakePredictor {
	return &fakePredictor{started: make(chan *fakeCall, 8)}
}

func (p *fakePredictor) PredictCategory(ctx context.Context, amount float64, date *time.Time) (core.CategoryPrediction, error) {
	c := &fakeCall{amount: amount, release: make(chan struct{})}
	p.started <- c
	<-c.release
	return c.result, c.err
}

func (p *fakePredictor) nextCall(t *testing.T) *fakeCall {
	t.Helper()
	select {
	case c := <-p.started:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no prediction request issued")
		return nil
	}
}

func (p *fakePredictor) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-p.started:
		t.Fatalf("unexpected prediction request for amount %v", c.amount)
	case <-time.After(100 * time.Millisecond):
	}
}

func rankedPrediction(first string) core.CategoryPrediction {
	return core.CategoryPrediction{
		PredictedCategory: first,
		All: []core.PredictionEntry{
			{Category: first, Probability: 0.8},
			{Category: "Other", Probability: 0.2},
		},
	}
}

func waitForState(t *testing.T, states <-chan Snapshot, want State) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s.State == want {
				return s
			}
		case <-deadline:
			t.Fatalf("state %v never reached", want)
		}
	}
}

func newTestFetcher(t *testing.T) (*Fetcher, *fakePredictor, chan Snapshot) {
	t.Helper()
	fake := newFakePredictor()
	states := make(chan Snapshot, 32)
	f := NewFetcher(fake, nil, func(s Snapshot) { states <- s })
	return f, fake, states
}

func TestZeroAmountStaysIdle(t *testing.T) {
	f, fake, _ := newTestFetcher(t)

	if err := f.SetAmount(context.Background(), "0", nil); err != nil {
		t.Fatalf("SetAmount: %v", err)
	}
	fake.expectNoCall(t)
	if s := f.Snapshot(); s.State != StateIdle {
		t.Fatalf("state = %v, want idle", s.State)
	}
}

func TestNonNumericAmountStaysIdleAndReportsInvalid(t *testing.T) {
	f, fake, _ := newTestFetcher(t)

	err := f.SetAmount(context.Background(), "-", nil)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("SetAmount = %v, want ErrInvalidAmount", err)
	}
	fake.expectNoCall(t)
	if s := f.Snapshot(); s.State != StateIdle {
		t.Fatalf("state = %v, want idle", s.State)
	}
}

func TestNegativeAmountIsSentAsAbsoluteValue(t *testing.T) {
	f, fake, states := newTestFetcher(t)

	if err := f.SetAmount(context.Background(), "-45.50", nil); err != nil {
		t.Fatalf("SetAmount: %v", err)
	}
	waitForState(t, states, StateLoading)

	call := fake.nextCall(t)
	if call.amount != 45.5 {
		t.Fatalf("classifier received %v, want 45.5", call.amount)
	}
	call.result = rankedPrediction("Food")
	close(call.release)

	s := waitForState(t, states, StateSuccess)
	if len(s.Prediction.All) == 0 || s.Prediction.All[0].Category != "Food" {
		t.Fatalf("unexpected prediction: %+v", s.Prediction)
	}
}

func TestLastInputWins(t *testing.T) {
	f, fake, states := newTestFetcher(t)
	ctx := context.Background()

	if err := f.SetAmount(ctx, "10", nil); err != nil {
		t.Fatalf("SetAmount(10): %v", err)
	}
	first := fake.nextCall(t)

	if err := f.SetAmount(ctx, "20", nil); err != nil {
		t.Fatalf("SetAmount(20): %v", err)
	}
	second := fake.nextCall(t)

	// The newer request resolves first and wins.
	second.result = rankedPrediction("Shopping")
	close(second.release)
	s := waitForState(t, states, StateSuccess)
	if s.Prediction.All[0].Category != "Shopping" {
		t.Fatalf("unexpected winner: %+v", s.Prediction)
	}

	// The older request resolves late; its result must be discarded.
	first.result = rankedPrediction("Food")
	close(first.release)
	time.Sleep(100 * time.Millisecond)

	s = f.Snapshot()
	if s.State != StateSuccess || s.Prediction.All[0].Category != "Shopping" {
		t.Fatalf("stale result overwrote state: %+v", s)
	}
}

func TestRemoteFailureSurfacesPredictionUnavailable(t *testing.T) {
	f, fake, states := newTestFetcher(t)

	if err := f.SetAmount(context.Background(), "45.50", nil); err != nil {
		t.Fatalf("SetAmount: %v", err)
	}
	call := fake.nextCall(t)
	call.err = errors.New("boom")
	close(call.release)

	s := waitForState(t, states, StateError)
	if !errors.Is(s.Err, ErrPredictionUnavailable) {
		t.Fatalf("error = %v, want ErrPredictionUnavailable", s.Err)
	}
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	f, fake, _ := newTestFetcher(t)

	if err := f.SetAmount(context.Background(), "12", nil); err != nil {
		t.Fatalf("SetAmount: %v", err)
	}
	call := fake.nextCall(t)

	f.Reset()
	call.result = rankedPrediction("Food")
	close(call.release)
	time.Sleep(100 * time.Millisecond)

	if s := f.Snapshot(); s.State != StateIdle || len(s.Prediction.All) != 0 {
		t.Fatalf("in-flight result applied after reset: %+v", s)
	}
}

func TestClearingAmountReturnsToIdle(t *testing.T) {
	f, fake, states := newTestFetcher(t)

	if err := f.SetAmount(context.Background(), "12", nil); err != nil {
		t.Fatalf("SetAmount: %v", err)
	}
	call := fake.nextCall(t)
	call.result = rankedPrediction("Food")
	close(call.release)
	waitForState(t, states, StateSuccess)

	if err := f.SetAmount(context.Background(), "", nil); err != nil {
		t.Fatalf("SetAmount(empty): %v", err)
	}
	if s := f.Snapshot(); s.State != StateIdle {
		t.Fatalf("state = %v, want idle after clearing", s.State)
	}
}
