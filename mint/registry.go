package mint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jharmony/StreamVault/iox"
)

// RegistryError is returned for a non-2xx registry response.
type RegistryError struct {
	StatusCode int
	Message    string
}

func (e *RegistryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("asset registry returned status %d", e.StatusCode)
}

// HTTPRegistry creates assets with POST <url>/assets.
type HTTPRegistry struct {
	url     string
	client  *http.Client
	headers map[string]string
}

// NewHTTPRegistry creates a registry client. A zero timeout defaults to 60s.
func NewHTTPRegistry(url string, timeout time.Duration, headers map[string]string) *HTTPRegistry {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPRegistry{
		url:     strings.TrimRight(url, "/"),
		client:  &http.Client{Timeout: timeout},
		headers: headers,
	}
}

type createResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// CreateAsset implements Registry.
func (r *HTTPRegistry) CreateAsset(ctx context.Context, spec AssetSpec) (string, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal asset spec: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/assets", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("asset registry request failed: %w", err)
	}
	defer iox.DrainClose(resp.Body)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var out createResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RegistryError{StatusCode: resp.StatusCode, Message: out.Error}
	}
	if out.ID == "" {
		return "", fmt.Errorf("asset registry response missing id")
	}
	return out.ID, nil
}
