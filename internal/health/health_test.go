package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, result) {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	h := New(Checker{Name: "detector", Check: func(context.Context) error { return errors.New("down") }})

	rec, body := serve(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 regardless of checkers", rec.Code)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	pass := func(context.Context) error { return nil }
	tests := []struct {
		name       string
		checkers   []Checker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name: "all pass",
			checkers: []Checker{
				{Name: "detector", Check: pass},
				{Name: "camera", Check: pass},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"detector": "ok", "camera": "ok"},
		},
		{
			name: "breaker open",
			checkers: []Checker{
				{Name: "detector", Check: func(context.Context) error { return errors.New("circuit breaker is open") }},
				{Name: "camera", Check: pass},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "fail",
			wantChecks: map[string]string{"detector": "fail: circuit breaker is open", "camera": "ok"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec, body := serve(t, New(tc.checkers...), "/readyz")
			if rec.Code != tc.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			if body.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tc.wantStatus)
			}
			for name, want := range tc.wantChecks {
				if got := body.Checks[name]; got != want {
					t.Errorf("checks[%q] = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestReadyz_ChecksRunConcurrently(t *testing.T) {
	t.Parallel()

	var running atomic.Int32
	release := make(chan struct{})
	slow := func(ctx context.Context) error {
		if running.Add(1) == 2 {
			close(release)
		}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return errors.New("checks ran sequentially")
		}
	}
	h := New(Checker{Name: "a", Check: slow}, Checker{Name: "b", Check: slow})

	rec, body := serve(t, h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, checks = %v", rec.Code, body.Checks)
	}
}

func TestReadyz_CheckSeesDeadline(t *testing.T) {
	t.Parallel()
	var hasDeadline atomic.Bool
	h := New(Checker{Name: "detector", Check: func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hasDeadline.Store(ok)
		return nil
	}})

	serve(t, h, "/readyz")
	if !hasDeadline.Load() {
		t.Error("checker context has no deadline")
	}
}

func TestRegister_RejectsPost(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	New().Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz code = %d, want 405", rec.Code)
	}
}
