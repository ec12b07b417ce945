package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/auth"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/catalog"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/engine"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePinger reports a fixed connectivity result.
type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(discardLogger(), nil)

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"]); err != nil {
		t.Errorf("timestamp %q not RFC3339: %v", body["timestamp"], err)
	}
}

func TestHealthCheck_ReportsBackends(t *testing.T) {
	h := NewHealthHandler(discardLogger(), map[string]domain.Pinger{
		"postgres": fakePinger{},
		"redis":    fakePinger{},
	})

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Checks["postgres"] != "ok" || body.Checks["redis"] != "ok" {
		t.Errorf("checks = %v, want all ok", body.Checks)
	}
}

func TestHealthCheck_DegradedOnBackendFailure(t *testing.T) {
	h := NewHealthHandler(discardLogger(), map[string]domain.Pinger{
		"postgres": fakePinger{},
		"redis":    fakePinger{err: errors.New("connection refused")},
	})

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("status = %q, want degraded", body.Status)
	}
	if body.Checks["postgres"] != "ok" {
		t.Errorf("postgres check = %q, want ok", body.Checks["postgres"])
	}
	if body.Checks["redis"] != "unreachable" {
		t.Errorf("redis check = %q, want unreachable", body.Checks["redis"])
	}
}

func TestLogin(t *testing.T) {
	svc := auth.NewService("test-secret", time.Hour)
	store := memory.NewUserStore()
	h := NewAuthHandler(svc, store, discardLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"alice@example.com"}`))
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"userId"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if resp.Token == "" {
		t.Error("response missing token")
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("user email = %q", resp.User.Email)
	}
	if _, err := svc.Verify(resp.Token); err != nil {
		t.Errorf("issued token does not verify: %v", err)
	}

	// The user record was persisted.
	if _, err := store.Get(req.Context(), resp.User.ID); err != nil {
		t.Errorf("user not stored: %v", err)
	}
}

func TestLogin_BadRequests(t *testing.T) {
	svc := auth.NewService("test-secret", time.Hour)
	h := NewAuthHandler(svc, memory.NewUserStore(), discardLogger())

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing email", `{}`},
		{"invalid email", `{"email":"no-at-sign"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tc.body))
			h.Login(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestLogin_RepeatKeepsFirstRecord(t *testing.T) {
	svc := auth.NewService("test-secret", time.Hour)
	store := memory.NewUserStore()
	h := NewAuthHandler(svc, store, discardLogger())

	login := func() (created string) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"alice@example.com"}`))
		h.Login(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp struct {
			User struct {
				CreatedAt string `json:"createdAt"`
			} `json:"user"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return resp.User.CreatedAt
	}

	first := login()
	time.Sleep(5 * time.Millisecond)
	second := login()
	if first != second {
		t.Errorf("second login rewrote createdAt: %q then %q", first, second)
	}
}

func TestListTickers(t *testing.T) {
	eng := engine.New(engine.Config{Volatility: 0.002}, nil, nil, discardLogger())
	h := NewTickerHandler(eng, discardLogger())

	w := httptest.NewRecorder()
	h.ListTickers(w, httptest.NewRequest(http.MethodGet, "/api/tickers", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Tickers []string `json:"tickers"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Count != len(catalog.Symbols()) || len(body.Tickers) != body.Count {
		t.Errorf("catalog response = %+v", body)
	}
}

func TestGetPrices(t *testing.T) {
	eng := engine.New(engine.Config{Volatility: 0.002}, nil, nil, discardLogger())
	h := NewTickerHandler(eng, discardLogger())

	w := httptest.NewRecorder()
	h.GetPrices(w, httptest.NewRequest(http.MethodGet, "/api/prices", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var prices map[string]float64
	if err := json.Unmarshal(w.Body.Bytes(), &prices); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if len(prices) != len(catalog.Symbols()) {
		t.Errorf("got %d prices, want %d", len(prices), len(catalog.Symbols()))
	}
	for sym, price := range prices {
		if price <= 0 {
			t.Errorf("price for %s = %v", sym, price)
		}
	}
}
