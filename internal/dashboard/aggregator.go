// Package dashboard fans out the three independent reads a dashboard view
// needs and merges their results into per-section view state. A failure in
// one read never blanks the other two: each section carries its own data
// or error (partial-failure tolerance).
package dashboard

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

var ErrNoSession = errors.New("no active session")

// Reader is the remote read port (satisfied by *api.Client).
type Reader interface {
	Transactions(ctx context.Context, userID string) ([]core.Transaction, error)
	SpendingByCategory(ctx context.Context, userID string) ([]core.CategoryAggregate, error)
	MonthlyTrend(ctx context.Context, userID string) ([]core.MonthlyTrendPoint, error)
}

// UserSource supplies the current session's user id for Refresh.
type UserSource interface {
	UserID() string
}

// Section holds one independent piece of dashboard view state.
type Section[T any] struct {
	Data   T
	Err    error
	Loaded bool
}

// Snapshot is a copy of all three sections.
type Snapshot struct {
	Transactions Section[[]core.Transaction]
	Categories   Section[[]core.CategoryAggregate]
	Trend        Section[[]core.MonthlyTrendPoint]
}

type Aggregator struct {
	reader Reader
	users  UserSource
	logger *log.Logger

	mu   sync.Mutex
	gen  uint64
	snap Snapshot
}

func NewAggregator(reader Reader, users UserSource, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Aggregator{
		reader: reader,
		users:  users,
		logger: logger.WithComponent(log.ComponentDashboard),
	}
}

// Load performs one fresh fan-out for userID and blocks until all three
// reads settle. Sections update independently as results arrive. Each call
// starts a new generation: if a newer Load begins while this one is in
// flight, the older results are discarded rather than merged.
func (a *Aggregator) Load(ctx context.Context, userID string) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := a.reader.Transactions(ctx, userID)
		a.setTransactions(gen, txs, err)
		return nil
	})
	g.Go(func() error {
		cats, err := a.reader.SpendingByCategory(ctx, userID)
		a.setCategories(gen, cats, err)
		return nil
	})
	g.Go(func() error {
		trend, err := a.reader.MonthlyTrend(ctx, userID)
		a.setTrend(gen, trend, err)
		return nil
	})

	// Reads record their own section errors, so Wait never fails.
	_ = g.Wait()
}

// Refresh re-invokes Load with the current session's user id.
func (a *Aggregator) Refresh(ctx context.Context) error {
	userID := a.users.UserID()
	if userID == "" {
		return ErrNoSession
	}
	a.Load(ctx, userID)
	return nil
}

// Snapshot returns a copy of the current view state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap
}

func (a *Aggregator) setTransactions(gen uint64, txs []core.Transaction, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	if err != nil {
		a.logger.Warn("Transaction list read failed", log.FieldError, err)
		a.snap.Transactions = Section[[]core.Transaction]{Err: err, Loaded: true}
		return
	}
	// Display order is most-recent-first; the server returns insertion
	// order.
	reversed := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		reversed[len(txs)-1-i] = tx
	}
	a.snap.Transactions = Section[[]core.Transaction]{Data: reversed, Loaded: true}
}

func (a *Aggregator) setCategories(gen uint64, cats []core.CategoryAggregate, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	if err != nil {
		a.logger.Warn("Category aggregation read failed", log.FieldError, err)
		a.snap.Categories = Section[[]core.CategoryAggregate]{Err: err, Loaded: true}
		return
	}
	// Server order is kept as-is.
	a.snap.Categories = Section[[]core.CategoryAggregate]{Data: cats, Loaded: true}
}

func (a *Aggregator) setTrend(gen uint64, trend []core.MonthlyTrendPoint, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	if err != nil {
		a.logger.Warn("Monthly trend read failed", log.FieldError, err)
		a.snap.Trend = Section[[]core.MonthlyTrendPoint]{Err: err, Loaded: true}
		return
	}
	a.snap.Trend = Section[[]core.MonthlyTrendPoint]{Data: trend, Loaded: true}
}
