package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jharmony/StreamVault/adapter"
	"github.com/Jharmony/StreamVault/iox"
)

func testEvent() *adapter.PublishCompletedEvent {
	confirmed := true
	return &adapter.PublishCompletedEvent{
		EventType:   adapter.EventTypePublishCompleted,
		AppName:     "StreamVault",
		AttemptID:   "attempt-001",
		Tier:        "full",
		Wallet:      "wallet-abc",
		WalletType:  "arweave",
		Outcome:     adapter.OutcomeSuccess,
		ContentID:   "tx-123",
		AssetID:     "asset-456",
		PermawebURL: "https://arweave.net/tx-123",
		Confirmed:   &confirmed,
		Timestamp:   "2026-03-01T12:00:00Z",
		DurationMs:  1500,
	}
}

func newTestAdapter(t *testing.T, cfg Config) *Adapter {
	t.Helper()
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Millisecond
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(iox.CloseFunc(a))
	return a
}

func TestPublish_Success(t *testing.T) {
	var received adapter.PublishCompletedEvent
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
		if sig := r.Header.Get(SignatureHeader); sig != "" {
			t.Errorf("unexpected signature without secret: %s", sig)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("unmarshal: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := newTestAdapter(t, Config{URL: ts.URL})
	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if received.AttemptID != "attempt-001" {
		t.Errorf("expected attempt-001, got %s", received.AttemptID)
	}
	if received.EventType != adapter.EventTypePublishCompleted {
		t.Errorf("expected publish_completed, got %s", received.EventType)
	}
	if received.Confirmed == nil || !*received.Confirmed {
		t.Errorf("confirmed lost: %v", received.Confirmed)
	}
}

func TestPublish_CustomHeadersAndSignature(t *testing.T) {
	var authHeader, sigHeader string
	var body []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		sigHeader = r.Header.Get(SignatureHeader)
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := newTestAdapter(t, Config{
		URL:     ts.URL,
		Headers: map[string]string{"Authorization": "Bearer test-token"},
		Secret:  "shh",
	})
	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if authHeader != "Bearer test-token" {
		t.Errorf("expected Bearer test-token, got %s", authHeader)
	}
	if sigHeader != Sign("shh", body) {
		t.Errorf("signature %q does not match body", sigHeader)
	}
}

func TestPublish_RetriesOnFailure(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := newTestAdapter(t, Config{URL: ts.URL, Retries: 3})
	if err := a.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish should succeed after retries: %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestPublish_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	defer close(release)

	a := newTestAdapter(t, Config{URL: ts.URL, Timeout: 10 * time.Second})

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	if err := a.Publish(ctx, testEvent()); err == nil {
		t.Fatal("expected error on canceled context")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New(Config{URL: "http://example.com", Retries: -1}); err == nil {
		t.Error("expected error for negative retries")
	}

	a, err := New(Config{URL: "http://example.com"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.config.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, a.config.Timeout)
	}
	if a.config.InitialBackoff != DefaultInitialBackoff {
		t.Errorf("expected default backoff %v, got %v", DefaultInitialBackoff, a.config.InitialBackoff)
	}
}

func TestPublish_Accepts2xxRange(t *testing.T) {
	for _, code := range []int{200, 201, 202, 204} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			a := newTestAdapter(t, Config{URL: ts.URL})
			if err := a.Publish(t.Context(), testEvent()); err != nil {
				t.Fatalf("expected success for %d, got %v", code, err)
			}
		})
	}
}

func TestPublish_4xxFailsImmediately(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			var attempts atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.WriteHeader(code)
			}))
			defer ts.Close()

			a := newTestAdapter(t, Config{URL: ts.URL, Retries: 3})
			if err := a.Publish(t.Context(), testEvent()); err == nil {
				t.Fatalf("expected error for %d", code)
			}
			if got := attempts.Load(); got != 1 {
				t.Errorf("expected 1 attempt for %d, got %d", code, got)
			}
		})
	}
}

func TestPublish_5xxRetriesAndFails(t *testing.T) {
	for _, code := range []int{500, 502, 503} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			var attempts atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				attempts.Add(1)
				w.WriteHeader(code)
			}))
			defer ts.Close()

			a := newTestAdapter(t, Config{URL: ts.URL, Retries: 2})
			if err := a.Publish(t.Context(), testEvent()); err == nil {
				t.Fatalf("expected error for %d", code)
			}
			// 1 initial + 2 retries
			if got := attempts.Load(); got != 3 {
				t.Errorf("expected 3 attempts for %d, got %d", code, got)
			}
		})
	}
}
