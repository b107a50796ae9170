// Package profile reads and appends to the wallet's on-chain profile document.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/Jharmony/StreamVault/iox"
	"github.com/Jharmony/StreamVault/log"
)

// SamplesPath is the profile list publish records are appended to.
const SamplesPath = "Samples[]"

// ErrStoreUnavailable is returned when no profile store is configured.
var ErrStoreUnavailable = errors.New("profile store not available")

// Profile is the subset of a profile document the pipeline needs.
type Profile struct {
	ID     string `json:"id"`
	Wallet string `json:"wallet,omitempty"`
}

// Store reads and appends to profile documents.
type Store interface {
	// GetByWallet returns the wallet's profile, or nil when none exists.
	GetByWallet(ctx context.Context, address string) (*Profile, error)
	// AppendToList appends record to the list at path on profile profileID.
	AppendToList(ctx context.Context, path string, record any, profileID string) error
}

// StatusError is returned for a non-2xx profile service response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("profile service returned status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("profile service returned status %d", e.Code)
}

// HTTPConfig configures an HTTPStore.
type HTTPConfig struct {
	// URL is the profile service base URL.
	URL string
	// Timeout is the per-request timeout (default: 10s).
	Timeout time.Duration
	// MaxElapsed bounds retries of one call (default: 15s).
	MaxElapsed time.Duration
	// InitialBackoff is the first retry delay (default: 500ms).
	InitialBackoff time.Duration
	// Headers are custom headers sent with every request.
	Headers map[string]string
}

// HTTPStore is a Store backed by the profile service.
//
//	GET  <url>/profiles?wallet=<address>   200 {"id",...} | 404
//	POST <url>/profiles/<id>/zone          {"op":"append","path","data"}
//
// Network failures and 5xx responses are retried with exponential back-off;
// 4xx responses are not.
type HTTPStore struct {
	config HTTPConfig
	client *http.Client
	logger *log.Logger
}

// NewHTTPStore creates a profile store client.
func NewHTTPStore(config HTTPConfig, logger *log.Logger) (*HTTPStore, error) {
	if config.URL == "" {
		return nil, errors.New("profile service URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxElapsed == 0 {
		config.MaxElapsed = 15 * time.Second
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}
	config.URL = strings.TrimRight(config.URL, "/")
	return &HTTPStore{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: log.OrNop(logger),
	}, nil
}

// GetByWallet implements Store.
func (s *HTTPStore) GetByWallet(ctx context.Context, address string) (*Profile, error) {
	endpoint := s.config.URL + "/profiles?wallet=" + url.QueryEscape(address)

	var out *Profile
	err := s.retry(ctx, "get_profile", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.do(req)
		if err != nil {
			return err
		}
		defer iox.DrainClose(resp.Body)

		if resp.StatusCode == http.StatusNotFound {
			out = nil
			return nil
		}
		if err := checkStatus(resp); err != nil {
			return err
		}

		var p Profile
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return backoff.Permanent(fmt.Errorf("decode profile: %w", err))
		}
		if p.ID == "" {
			out = nil
			return nil
		}
		out = &p
		return nil
	})
	return out, err
}

type appendRequest struct {
	Op   string `json:"op"`
	Path string `json:"path"`
	Data any    `json:"data"`
}

// AppendToList implements Store.
func (s *HTTPStore) AppendToList(ctx context.Context, path string, record any, profileID string) error {
	if profileID == "" {
		return errors.New("profile id is required")
	}
	body, err := json.Marshal(appendRequest{Op: "append", Path: path, Data: record})
	if err != nil {
		return fmt.Errorf("marshal append request: %w", err)
	}
	endpoint := s.config.URL + "/profiles/" + url.PathEscape(profileID) + "/zone"

	return s.retry(ctx, "append_to_list", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.do(req)
		if err != nil {
			return err
		}
		defer iox.DrainClose(resp.Body)
		return checkStatus(resp)
	})
}

func (s *HTTPStore) do(req *http.Request) (*http.Response, error) {
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service request failed: %w", err)
	}
	return resp, nil
}

// checkStatus maps a non-2xx response to *StatusError. 4xx is permanent.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}

func (s *HTTPStore) retry(ctx context.Context, op string, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.config.InitialBackoff
	eb.MaxElapsedTime = s.config.MaxElapsed

	notify := func(err error, next time.Duration) {
		s.logger.Warn("profile service call failed, retrying", map[string]any{
			"op":      op,
			"error":   err.Error(),
			"backoff": next.String(),
		})
	}
	return backoff.RetryNotify(fn, backoff.WithContext(eb, ctx), notify)
}
