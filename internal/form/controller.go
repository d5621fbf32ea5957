// Package form manages the transaction draft: field edits behind the
// amount input mask, local validation, submission, and the refresh signal
// dependent views wait for. The draft survives failed submissions; nothing
// the user typed is lost on error.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

var (
	// ErrUnauthenticated is returned when no session is present; the
	// submit never reaches the network.
	ErrUnauthenticated = errors.New("please login first")

	// ErrValidation wraps local precondition failures (missing or
	// unparseable fields); the submit never reaches the network.
	ErrValidation = errors.New("validation failed")
)

// Field names accepted by UpdateField.
const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDescription = "description"
)

// Creator is the create port (satisfied by *api.Client).
type Creator interface {
	CreateTransaction(ctx context.Context, req api.CreateTransactionRequest) (core.Transaction, error)
}

// SessionSource supplies the current user id; empty means no session.
type SessionSource interface {
	UserID() string
}

// Refresher is signalled exactly once after a successful create
// (satisfied by *dashboard.Aggregator).
type Refresher interface {
	Refresh(ctx context.Context) error
}

// AmountObserver reacts to amount edits (satisfied by
// *prediction.Fetcher). Optional.
type AmountObserver interface {
	SetAmount(ctx context.Context, raw string, date *time.Time) error
	Reset()
}

// Notifier publishes created-transaction events. Optional and
// best-effort: its failure never fails a submit.
type Notifier interface {
	TransactionCreated(ctx context.Context, tx core.Transaction) error
}

type Controller struct {
	creator   Creator
	sessions  SessionSource
	refresher Refresher
	observer  AmountObserver
	notifier  Notifier
	logger    *log.Logger

	mu      sync.Mutex
	open    bool
	draft   core.TransactionDraft
	lastErr error
	success bool
}

// NewController creates a form controller. observer and notifier may be
// nil.
func NewController(creator Creator, sessions SessionSource, refresher Refresher, observer AmountObserver, notifier Notifier, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Controller{
		creator:   creator,
		sessions:  sessions,
		refresher: refresher,
		observer:  observer,
		notifier:  notifier,
		logger:    logger.WithComponent(log.ComponentForm),
	}
}

// Open starts a form session with a clean error state. The draft keeps
// whatever a previous unsubmitted session left, matching the reopened-form
// behavior users expect after a failure.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.lastErr = nil
}

// Close cancels the form session and discards the draft. Any in-flight
// prediction result is ignored from here on.
func (c *Controller) Close() {
	c.mu.Lock()
	c.open = false
	c.lastErr = nil
	c.draft.Reset()
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.Reset()
	}
}

// UpdateField applies one field edit. Amount edits that do not match the
// signed-decimal-in-progress mask are rejected silently and the field
// keeps its previous value; this is an input mask, not a validation
// failure.
func (c *Controller) UpdateField(ctx context.Context, name, value string) error {
	switch name {
	case FieldAmount:
		if !core.ValidAmountInput(value) {
			return nil
		}
		c.mu.Lock()
		c.draft.Amount = value
		c.mu.Unlock()
		if c.observer != nil {
			// The observer reports non-numeric partial input itself;
			// the form has nothing to add.
			_ = c.observer.SetAmount(ctx, value, nil)
		}
		return nil
	case FieldDescription:
		c.mu.Lock()
		c.draft.Description = value
		c.mu.Unlock()
		return nil
	case FieldCategory:
		return c.SelectCategory(value)
	default:
		return fmt.Errorf("unknown form field %q", name)
	}
}

// SelectCategory sets the draft category. Manual choices and prediction
// suggestions both land here.
func (c *Controller) SelectCategory(category string) error {
	if !core.ValidCategory(category) {
		return fmt.Errorf("%w: %s", core.ErrUnknownCategory, category)
	}
	c.mu.Lock()
	c.draft.Category = category
	c.mu.Unlock()
	return nil
}

// Submit validates the draft and creates the transaction. Local failures
// (no session, missing or unparseable fields) are reported synchronously
// and issue zero remote calls. On remote failure the form stays open with
// the draft preserved. On success the draft resets, the form closes, and
// the refresher is signalled exactly once.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	userID := c.sessions.UserID()
	if userID == "" {
		return c.fail(ErrUnauthenticated)
	}

	if err := draft.Validate(); err != nil {
		return c.fail(fmt.Errorf("%w: %v", ErrValidation, err))
	}

	amount, err := core.ParseAmount(draft.Amount)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %v", ErrValidation, err))
	}

	tx, err := c.creator.CreateTransaction(ctx, api.CreateTransactionRequest{
		Amount:      amount,
		Category:    draft.Category,
		Description: draft.Description,
		UserID:      userID,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Create transaction failed",
			log.FieldOperation, log.OpCreate,
			log.FieldError, err)
		return c.fail(err)
	}

	c.mu.Lock()
	c.draft.Reset()
	c.open = false
	c.lastErr = nil
	c.success = true
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.Reset()
	}

	c.logger.InfoContext(ctx, "Transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldCategory, tx.Category,
		log.FieldAmount, tx.Amount)

	if err := c.refresher.Refresh(ctx); err != nil {
		c.logger.WarnContext(ctx, "Dashboard refresh failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err)
	}

	if c.notifier != nil {
		if err := c.notifier.TransactionCreated(ctx, tx); err != nil {
			c.logger.WarnContext(ctx, "Created-event publish failed",
				log.FieldOperation, log.OpPublish,
				log.FieldError, err)
		}
	}

	return nil
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	return err
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() core.TransactionDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// IsOpen reports whether a form session is active.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Err returns the error surfaced by the last failed action, nil after a
// successful submit or Open.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ConsumeSuccess returns whether the last submit succeeded and clears the
// transient notice flag.
func (c *Controller) ConsumeSuccess() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.success
	c.success = false
	return ok
}
