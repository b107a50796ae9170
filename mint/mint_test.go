package mint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubRegistry struct {
	id   string
	err  error
	spec AssetSpec
}

func (r *stubRegistry) CreateAsset(_ context.Context, spec AssetSpec) (string, error) {
	r.spec = spec
	return r.id, r.err
}

func TestBuildSpec(t *testing.T) {
	bps := 250
	spec := BuildSpec(Input{
		Title:              "Night Drive",
		Artist:             "Nova",
		Creator:            "ar-addr",
		AudioContentID:     "audio-id",
		AudioURL:           "https://arweave.net/audio-id",
		ArtworkURL:         "https://arweave.net/art-id",
		RoyaltyBasisPoints: &bps,
	})

	if spec.Name != "Night Drive" {
		t.Errorf("Name = %q", spec.Name)
	}
	if spec.Description != "Permanent release by Nova" {
		t.Errorf("Description = %q", spec.Description)
	}
	if spec.Data != "https://arweave.net/audio-id" {
		t.Errorf("Data = %q", spec.Data)
	}
	if spec.ContentType != "text/plain" || spec.AssetType != "audio" {
		t.Errorf("ContentType/AssetType = %q/%q", spec.ContentType, spec.AssetType)
	}
	if len(spec.Topics) != 3 || spec.Topics[0] != "Music" || spec.Topics[1] != "StreamVault" || spec.Topics[2] != "Atomic-Asset" {
		t.Errorf("Topics = %v", spec.Topics)
	}
	if spec.Metadata.AudioTxID != "audio-id" || spec.Metadata.Artwork != "https://arweave.net/art-id" {
		t.Errorf("Metadata = %+v", spec.Metadata)
	}
	if spec.Metadata.RoyaltiesBps == nil || *spec.Metadata.RoyaltiesBps != 250 {
		t.Errorf("RoyaltiesBps = %v", spec.Metadata.RoyaltiesBps)
	}
}

func TestBuildSpec_ExplicitDescriptionAndOptionalMetadata(t *testing.T) {
	spec := BuildSpec(Input{Title: "T", Artist: "A", Description: "  liner notes  "})
	if spec.Description != "liner notes" {
		t.Errorf("Description = %q", spec.Description)
	}

	b, err := json.Marshal(spec.Metadata)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if _, ok := m["artwork"]; ok {
		t.Error("artwork should be omitted when empty")
	}
	if _, ok := m["royaltiesBps"]; ok {
		t.Error("royaltiesBps should be omitted when nil")
	}
}

func TestMinter_Unavailable(t *testing.T) {
	m := NewMinter(nil, nil)
	if m.Available() {
		t.Fatal("expected unavailable")
	}
	if _, err := m.Mint(t.Context(), Input{}); !errors.Is(err, ErrRegistryUnavailable) {
		t.Fatalf("expected ErrRegistryUnavailable, got %v", err)
	}
}

func TestMinter_Mint(t *testing.T) {
	reg := &stubRegistry{id: "asset-1"}
	id, err := NewMinter(reg, nil).Mint(t.Context(), Input{Title: "T", Artist: "A", AudioContentID: "c1"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if id != "asset-1" {
		t.Errorf("id = %q", id)
	}
	if reg.spec.Metadata.AudioTxID != "c1" {
		t.Errorf("AudioTxID = %q", reg.spec.Metadata.AudioTxID)
	}
}

func TestMinter_PreservesRegistryMessage(t *testing.T) {
	cause := &RegistryError{StatusCode: 503, Message: "process spawn failed"}
	_, err := NewMinter(&stubRegistry{err: cause}, nil).Mint(t.Context(), Input{})

	if err == nil || err.Error() != "process spawn failed" {
		t.Fatalf("err = %v, want registry message", err)
	}
	var re *RegistryError
	if !errors.As(err, &re) || re.StatusCode != 503 {
		t.Errorf("expected wrapped RegistryError, got %v", err)
	}
}

func TestHTTPRegistry_CreateAsset(t *testing.T) {
	var got AssetSpec
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/assets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing custom header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"asset-9"}`))
	}))
	defer srv.Close()

	reg := NewHTTPRegistry(srv.URL, 0, map[string]string{"Authorization": "Bearer k"})
	id, err := reg.CreateAsset(t.Context(), BuildSpec(Input{Title: "T", Artist: "A", AudioContentID: "c"}))
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if id != "asset-9" {
		t.Errorf("id = %q", id)
	}
	if got.Metadata.AudioTxID != "c" || got.ContentType != "text/plain" {
		t.Errorf("server received %+v", got)
	}
}

func TestHTTPRegistry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error body", http.StatusBadGateway, `{"error":"registry offline"}`, "registry offline"},
		{"bare status", http.StatusInternalServerError, ``, "asset registry returned status 500"},
		{"missing id", http.StatusOK, `{}`, "asset registry response missing id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPRegistry(srv.URL, 0, nil).CreateAsset(t.Context(), AssetSpec{})
			if err == nil || err.Error() != tt.wantMsg {
				t.Errorf("err = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}
