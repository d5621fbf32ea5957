package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"fintrack/internal/core"
)

type (
	RegisterRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	RegisterResponse struct {
		Message string `json:"message"`
	}

	LoginResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		UserID      string `json:"user_id"`
	}

	CreateTransactionRequest struct {
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		UserID      string  `json:"user_id"`
	}

	predictCategoryRequest struct {
		Amount float64    `json:"amount"`
		Date   *time.Time `json:"date,omitempty"`
	}
)

// Register creates a new account. No credential is attached.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.call(ctx, http.MethodPost, "/users/register", req, &resp)
	return resp, err
}

// Login exchanges credentials for a bearer token and user id.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	err := c.call(ctx, http.MethodPost, "/users/login", body, &resp)
	return resp, err
}

// Transactions lists all transactions for the given user.
func (c *Client) Transactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	var out []core.Transaction
	path := "/transactions?user_id=" + url.QueryEscape(userID)
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateTransaction records a new transaction and returns the confirmed
// server copy.
func (c *Client) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (core.Transaction, error) {
	var out core.Transaction
	err := c.call(ctx, http.MethodPost, "/transactions", req, &out)
	return out, err
}

// SpendingByCategory returns server-computed per-category sums, in server
// order.
func (c *Client) SpendingByCategory(ctx context.Context, userID string) ([]core.CategoryAggregate, error) {
	var out []core.CategoryAggregate
	path := "/insights/spending-by-category/" + url.PathEscape(userID)
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// MonthlyTrend returns server-computed monthly totals, in server order.
func (c *Client) MonthlyTrend(ctx context.Context, userID string) ([]core.MonthlyTrendPoint, error) {
	var out []core.MonthlyTrendPoint
	path := "/insights/monthly-trend/" + url.PathEscape(userID)
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// PredictCategory asks the classifier for a ranked category prediction.
// amount must already be the absolute value; sign carries no signal for
// category prediction. date is optional.
func (c *Client) PredictCategory(ctx context.Context, amount float64, date *time.Time) (core.CategoryPrediction, error) {
	var out core.CategoryPrediction
	err := c.call(ctx, http.MethodPost, "/ml/predict/category", predictCategoryRequest{Amount: amount, Date: date}, &out)
	return out, err
}

// PredictNextMonth asks the regressor for next month's expense forecast.
func (c *Client) PredictNextMonth(ctx context.Context) (core.NextMonthForecast, error) {
	var out core.NextMonthForecast
	err := c.call(ctx, http.MethodGet, "/ml/predict/next-month", nil, &out)
	return out, err
}
