package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/config"
	"fintrack/internal/form"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

func newTestApp(t *testing.T, baseURL string) *App {
	t.Helper()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.New(log.DefaultConfig())
	return &App{
		Config:  config.Load(),
		Logger:  logger,
		Session: store,
		Client:  api.NewClient(baseURL, 2*time.Second, store, logger),
	}
}

func runCommand(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGatedCommandsRequireLogin(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)

	for _, args := range [][]string{
		{"dashboard"},
		{"add", "--amount", "-10"},
		{"predict", "next-month"},
		{"export"},
	} {
		_, err := runCommand(t, app, args...)
		if !errors.Is(err, ErrLoginRequired) {
			t.Errorf("%v: got %v, want ErrLoginRequired", args, err)
		}
	}
	if got := hits.Load(); got != 0 {
		t.Fatalf("remote hit %d times before login", got)
	}
}

func TestLoginStoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-1",
			"token_type":   "bearer",
			"user_id":      "7",
		})
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)

	out, err := runCommand(t, app, "login", "--email", "a@b.c", "--password", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in.") {
		t.Errorf("output %q missing confirmation", out)
	}
	if app.Session.Credential() != "tok-1" || app.Session.UserID() != "7" {
		t.Errorf("session not stored: cred=%q user=%q", app.Session.Credential(), app.Session.UserID())
	}
}

func TestLogoutClearsSession(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	if err := app.Session.Set(context.Background(), session.Session{Credential: "tok", UserID: "7"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := runCommand(t, app, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if app.Session.IsAuthenticated() {
		t.Error("still authenticated after logout")
	}
}

func TestRegisterValidatesLocally(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)

	_, err := runCommand(t, app, "register",
		"--username", "u", "--email", "a@b.c",
		"--password", "short", "--confirm-password", "short")
	if !errors.Is(err, form.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if got := hits.Load(); got != 0 {
		t.Fatalf("remote hit %d times on invalid input", got)
	}
}

func TestDashboardRendersAllSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		switch {
		case r.URL.Path == "/transactions":
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": "1", "amount": -12.5, "category": "Food", "description": "lunch", "date": "2026-08-01T00:00:00Z", "user_id": "7"},
				{"id": "2", "amount": -30.0, "category": "Shopping", "description": "shoes", "date": "2026-08-02T00:00:00Z", "user_id": "7"},
			})
		case strings.HasPrefix(r.URL.Path, "/insights/spending-by-category/"):
			json.NewEncoder(w).Encode([]map[string]any{
				{"category": "Food", "amount": 12.5},
			})
		case strings.HasPrefix(r.URL.Path, "/insights/monthly-trend/"):
			json.NewEncoder(w).Encode([]map[string]any{
				{"year": 2026, "month": 8, "amount": 42.5},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	if err := app.Session.Set(context.Background(), session.Session{Credential: "tok", UserID: "7"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := runCommand(t, app, "dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	for _, want := range []string{"lunch", "shoes", "Food", "2026-08", "42.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Most recent transaction first.
	if strings.Index(out, "shoes") > strings.Index(out, "lunch") {
		t.Errorf("transactions not most-recent-first:\n%s", out)
	}
}

func TestDashboardShowsPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/transactions":
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"detail": "boom"})
		case strings.HasPrefix(r.URL.Path, "/insights/spending-by-category/"):
			json.NewEncoder(w).Encode([]map[string]any{{"category": "Food", "amount": 5.0}})
		case strings.HasPrefix(r.URL.Path, "/insights/monthly-trend/"):
			json.NewEncoder(w).Encode([]map[string]any{})
		}
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	if err := app.Session.Set(context.Background(), session.Session{Credential: "tok", UserID: "7"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := runCommand(t, app, "dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !strings.Contains(out, "unavailable") {
		t.Errorf("failed section not reported:\n%s", out)
	}
	if !strings.Contains(out, "Food") {
		t.Errorf("healthy section missing:\n%s", out)
	}
}

func TestPredictNextMonth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ml/predict/next-month" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]float64{
			"predicted_amount": 812.30,
			"confidence_min":   700.00,
			"confidence_max":   950.00,
		})
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	if err := app.Session.Set(context.Background(), session.Session{Credential: "tok", UserID: "7"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := runCommand(t, app, "predict", "next-month")
	if err != nil {
		t.Fatalf("predict next-month: %v", err)
	}
	for _, want := range []string{"812.30", "700.00", "950.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPredictCategorySendsAbsoluteAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ml/predict/category" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if got := req["amount"]; got != 45.5 {
			t.Errorf("classifier received amount %v, want 45.5", got)
		}
		if _, present := req["date"]; present {
			t.Error("date sent without --date")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"predicted_category": "Food",
			"all_predictions": []map[string]any{
				{"category": "Food", "probability": 0.8},
			},
		})
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	if err := app.Session.Set(context.Background(), session.Session{Credential: "tok", UserID: "7"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := runCommand(t, app, "predict", "category", "--amount", "-45.50")
	if err != nil {
		t.Fatalf("predict category: %v", err)
	}
	if !strings.Contains(out, "Food") {
		t.Errorf("output missing suggestion:\n%s", out)
	}
}

func TestAddUsesSuggestionWhenCategoryOmitted(t *testing.T) {
	var created atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ml/predict/category":
			json.NewEncoder(w).Encode(map[string]any{
				"predicted_category": "Food",
				"all_predictions": []map[string]any{
					{"category": "Food", "probability": 0.8},
					{"category": "Shopping", "probability": 0.2},
				},
			})
		case r.URL.Path == "/transactions" && r.Method == http.MethodPost:
			created.Add(1)
			var req map[string]any
			json.NewDecoder(r.Body).Decode(&req)
			if req["category"] != "Food" {
				t.Errorf("category = %v, want Food", req["category"])
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id": "9", "amount": -45.5, "category": "Food",
				"description": "", "date": "2026-08-30T00:00:00Z", "user_id": "7",
			})
		case r.URL.Path == "/transactions" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode([]map[string]any{})
		case strings.HasPrefix(r.URL.Path, "/insights/"):
			json.NewEncoder(w).Encode([]map[string]any{})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	if err := app.Session.Set(context.Background(), session.Session{Credential: "tok", UserID: "7"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := runCommand(t, app, "add", "--amount", "-45.50")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.Load() != 1 {
		t.Fatalf("created %d transactions, want 1", created.Load())
	}
	if !strings.Contains(out, "Transaction added.") {
		t.Errorf("output %q missing confirmation", out)
	}
}

func TestAddRejectsInvalidAmount(t *testing.T) {
	app := newTestApp(t, "http://unused.invalid")
	if err := app.Session.Set(context.Background(), session.Session{Credential: "tok", UserID: "7"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := runCommand(t, app, "add", "--amount", "abc"); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}
