package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jharmony/StreamVault/types"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *HTTPStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s, err := NewHTTPStore(HTTPConfig{
		URL:            srv.URL,
		InitialBackoff: time.Millisecond,
		MaxElapsed:     2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewHTTPStore: %v", err)
	}
	return s
}

func TestHTTPStore_GetByWallet(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profiles" {
			t.Errorf("path = %q", r.URL.Path)
		}
		switch r.URL.Query().Get("wallet") {
		case "known":
			_, _ = w.Write([]byte(`{"id":"profile-1","wallet":"known"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	p, err := s.GetByWallet(t.Context(), "known")
	if err != nil {
		t.Fatalf("GetByWallet: %v", err)
	}
	if p == nil || p.ID != "profile-1" {
		t.Fatalf("profile = %+v", p)
	}

	p, err = s.GetByWallet(t.Context(), "unknown")
	if err != nil {
		t.Fatalf("GetByWallet: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil profile, got %+v", p)
	}
}

func TestHTTPStore_AppendToList(t *testing.T) {
	var got appendRequest
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/profiles/profile-1/zone" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	})

	rec := map[string]string{"contentId": "c1"}
	if err := s.AppendToList(t.Context(), SamplesPath, rec, "profile-1"); err != nil {
		t.Fatalf("AppendToList: %v", err)
	}
	if got.Op != "append" || got.Path != "Samples[]" {
		t.Errorf("request = %+v", got)
	}
	data, _ := got.Data.(map[string]any)
	if data["contentId"] != "c1" {
		t.Errorf("data = %v", got.Data)
	}
}

func TestHTTPStore_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := s.AppendToList(t.Context(), SamplesPath, map[string]string{}, "p"); err != nil {
		t.Fatalf("AppendToList: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestHTTPStore_ClientErrorsArePermanent(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("not your profile"))
	})

	err := s.AppendToList(t.Context(), SamplesPath, map[string]string{}, "p")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("expected StatusError 403, got %v", err)
	}
	if se.Body != "not your profile" {
		t.Errorf("Body = %q", se.Body)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestHTTPStore_RequiresProfileID(t *testing.T) {
	s := newTestStore(t, func(http.ResponseWriter, *http.Request) {})
	if err := s.AppendToList(t.Context(), SamplesPath, nil, ""); err == nil {
		t.Fatal("expected error for empty profile id")
	}
}

func TestNewHTTPStore_RequiresURL(t *testing.T) {
	if _, err := NewHTTPStore(HTTPConfig{}, nil); err == nil {
		t.Fatal("expected error")
	}
}

type countingStore struct {
	profiles map[string]string
	lookups  int
	err      error
}

func (s *countingStore) GetByWallet(_ context.Context, address string) (*Profile, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.profiles[address]
	if !ok {
		return nil, nil
	}
	return &Profile{ID: id, Wallet: address}, nil
}

func (s *countingStore) AppendToList(context.Context, string, any, string) error { return nil }

type mapOverrides map[string]string

func (m mapOverrides) ProfileOverride(_ context.Context, address string) (string, bool, error) {
	id, ok := m[address]
	return id, ok, nil
}

func TestResolver_CachesFoundProfiles(t *testing.T) {
	store := &countingStore{profiles: map[string]string{"w": "p1"}}
	r, err := NewResolver(store, nil, 0, nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	for range 3 {
		id, err := r.ProfileID(t.Context(), "w")
		if err != nil || id != "p1" {
			t.Fatalf("ProfileID = %q, %v", id, err)
		}
	}
	if store.lookups != 1 {
		t.Errorf("lookups = %d, want 1", store.lookups)
	}

	r.Invalidate("W")
	_, _ = r.ProfileID(t.Context(), "w")
	if store.lookups != 2 {
		t.Errorf("lookups after invalidate = %d, want 2", store.lookups)
	}
}

func TestResolver_DoesNotCacheMissing(t *testing.T) {
	store := &countingStore{profiles: map[string]string{}}
	r, _ := NewResolver(store, nil, 0, nil)

	id, err := r.ProfileID(t.Context(), "w")
	if err != nil || id != "" {
		t.Fatalf("ProfileID = %q, %v", id, err)
	}

	store.profiles["w"] = "created-later"
	id, _ = r.ProfileID(t.Context(), "w")
	if id != "created-later" {
		t.Errorf("ProfileID = %q, want created-later", id)
	}
}

func TestResolver_OverrideWins(t *testing.T) {
	store := &countingStore{profiles: map[string]string{"w": "from-store"}}
	r, _ := NewResolver(store, mapOverrides{"w": "pinned"}, 0, nil)

	id, err := r.ProfileID(t.Context(), "w")
	if err != nil || id != "pinned" {
		t.Fatalf("ProfileID = %q, %v", id, err)
	}
	if store.lookups != 0 {
		t.Errorf("store consulted despite override")
	}
}

func TestResolver_NoStore(t *testing.T) {
	r, _ := NewResolver(nil, nil, 0, nil)
	if _, err := r.ProfileID(t.Context(), "w"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	r, _ = NewResolver(nil, mapOverrides{"w": "pinned"}, 0, nil)
	if id, err := r.ProfileID(t.Context(), "w"); err != nil || id != "pinned" {
		t.Fatalf("override without store = %q, %v", id, err)
	}
}

func TestResolver_StoreError(t *testing.T) {
	boom := errors.New("gateway down")
	r, _ := NewResolver(&countingStore{err: boom}, nil, 0, nil)
	if _, err := r.ProfileID(t.Context(), "w"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

type appendingStore struct {
	countingStore
	path      string
	profileID string
	record    any
}

func (s *appendingStore) AppendToList(_ context.Context, path string, record any, profileID string) error {
	s.path, s.record, s.profileID = path, record, profileID
	return nil
}

func TestResolver_AppendSample(t *testing.T) {
	store := &appendingStore{}
	r, _ := NewResolver(store, nil, 0, nil)

	rec := types.ProfileSampleRecord{ContentID: "tx-1"}
	if err := r.AppendSample(t.Context(), "p1", rec); err != nil {
		t.Fatalf("AppendSample: %v", err)
	}
	if store.path != SamplesPath || store.profileID != "p1" {
		t.Errorf("appended to %q on %q", store.path, store.profileID)
	}
	if got, _ := store.record.(types.ProfileSampleRecord); got.ContentID != "tx-1" {
		t.Errorf("record = %#v", store.record)
	}

	r, _ = NewResolver(nil, nil, 0, nil)
	if err := r.AppendSample(t.Context(), "p1", rec); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}
