package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storefront/storefront/internal/storage"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func readyz(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec.Code, response
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name       string
		checks     []ReadinessCheck
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name: "all healthy",
			checks: []ReadinessCheck{
				{Name: "postgres", Checker: &mockHealthChecker{}},
				{Name: "redis", Checker: &mockHealthChecker{}},
				{Name: "images", Checker: &mockHealthChecker{}},
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok", "images": "ok"},
		},
		{
			name: "database down",
			checks: []ReadinessCheck{
				{Name: "postgres", Checker: &mockHealthChecker{err: down}},
				{Name: "redis", Checker: &mockHealthChecker{}},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "error: connection refused", "redis": "ok"},
		},
		{
			name: "redis not configured",
			checks: []ReadinessCheck{
				{Name: "postgres", Checker: &mockHealthChecker{}},
				{Name: "redis"},
				{Name: "catalog_cache"},
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"postgres": "ok", "redis": CheckNotConfigured, "catalog_cache": CheckNotConfigured},
		},
		{
			name: "catalog cache unreadable",
			checks: []ReadinessCheck{
				{Name: "postgres", Checker: &mockHealthChecker{}},
				{Name: "catalog_cache", Checker: HealthCheckFunc(func(context.Context) error {
					return errors.New("i/o timeout")
				})},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "ok", "catalog_cache": "error: i/o timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, response := readyz(t, NewHealthHandler(tt.checks...))

			if code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, code)
			}
			wantState := "ok"
			if tt.wantStatus != http.StatusOK {
				wantState = "unhealthy"
			}
			if response.Status != wantState {
				t.Errorf("expected status %q, got %q", wantState, response.Status)
			}
			for name, want := range tt.wantChecks {
				if got := response.Checks[name]; got != want {
					t.Errorf("check %s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestHealthHandler_Readyz_ImageDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	h := NewHealthHandler(ReadinessCheck{Name: "images", Checker: store})
	if code, response := readyz(t, h); code != http.StatusOK || response.Checks["images"] != "ok" {
		t.Fatalf("expected images ok, got %d %v", code, response.Checks)
	}
}
