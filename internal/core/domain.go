package core

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Categories is the closed set of transaction categories the tracker knows
// about. The server's classifier is trained on the same set.
var Categories = []string{
	"Food",
	"Transportation",
	"Housing",
	"Entertainment",
	"Healthcare",
	"Shopping",
	"Other",
}

type (
	// Transaction is a server-confirmed record. The sign of Amount encodes
	// direction: negative for expenses, positive for income. Fetched
	// transactions are never mutated in place; a successful create triggers
	// a full refetch instead.
	Transaction struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Category    string    `json:"category"`
		Description string    `json:"description"`
		Date        time.Time `json:"date"`
		UserID      string    `json:"user_id"`
	}

	// TransactionDraft holds not-yet-submitted form input. Amount stays a
	// raw string until submit so partial edits like "-" or "12." survive.
	TransactionDraft struct {
		Amount      string
		Category    string
		Description string
	}

	// PredictionEntry is one ranked candidate from the category classifier.
	PredictionEntry struct {
		Category    string  `json:"category"`
		Probability float64 `json:"probability"`
	}

	// CategoryPrediction is the classifier's full answer, ordered descending
	// by probability. The first entry is the suggested default.
	CategoryPrediction struct {
		PredictedCategory string            `json:"predicted_category"`
		All               []PredictionEntry `json:"all_predictions"`
	}

	// CategoryAggregate is a server-computed per-category sum.
	CategoryAggregate struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	// MonthlyTrendPoint is a server-computed monthly total.
	MonthlyTrendPoint struct {
		Year   int     `json:"year"`
		Month  int     `json:"month"`
		Amount float64 `json:"amount"`
	}

	// NextMonthForecast is the regressor's estimate for next month's total.
	NextMonthForecast struct {
		PredictedAmount float64 `json:"predicted_amount"`
		ConfidenceMin   float64 `json:"confidence_min"`
		ConfidenceMax   float64 `json:"confidence_max"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
)

// amountMask accepts a signed decimal in progress: optional leading minus,
// digits, at most one decimal point. Empty strings are allowed so the user
// can clear the field.
var amountMask = regexp.MustCompile(`^-?\d*\.?\d*$`)

// ValidAmountInput reports whether raw may be accepted as an amount edit.
// This is an input mask, not a validation: "-" and "12." pass here but fail
// ParseAmount.
func ValidAmountInput(raw string) bool {
	return amountMask.MatchString(raw)
}

// ParseAmount converts a completed amount string to its numeric form.
// Returns ErrInvalidAmount for empty input, non-numeric input, or
// non-finite values.
func ParseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ValidCategory reports whether c belongs to the fixed category set.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Validate checks a draft for submission. The amount must parse to a
// finite number and the category must be non-empty; description may be
// empty and passes through verbatim.
func (d TransactionDraft) Validate() error {
	if _, err := ParseAmount(d.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Reset clears the draft back to its initial empty state.
func (d *TransactionDraft) Reset() {
	d.Amount = ""
	d.Category = ""
	d.Description = ""
}
