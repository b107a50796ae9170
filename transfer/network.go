package transfer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Jharmony/StreamVault/iox"
)

// Network accepts signed transactions.
type Network interface {
	// Submit posts tx and returns the HTTP status the network answered with.
	// An error means no status was received.
	Submit(ctx context.Context, tx *Transaction) (int, error)
}

// HTTPNetwork posts msgpack-encoded transactions to <url>/tx.
type HTTPNetwork struct {
	url    string
	client *http.Client
}

// NewHTTPNetwork creates a network client. A zero timeout defaults to 2m.
func NewHTTPNetwork(url string, timeout time.Duration) *HTTPNetwork {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPNetwork{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Submit implements Network.
func (n *HTTPNetwork) Submit(ctx context.Context, tx *Transaction) (int, error) {
	body, err := Encode(tx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url+"/tx", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/msgpack")

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("transaction submit failed: %w", err)
	}
	defer iox.DrainClose(resp.Body)

	return resp.StatusCode, nil
}
