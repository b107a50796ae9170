package transfer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jharmony/StreamVault/iox"
	"github.com/Jharmony/StreamVault/types"
)

// Signer signs transactions on behalf of the connected wallet.
type Signer interface {
	// Address returns the owner address written into transactions.
	Address() string
	// Sign returns the signed transaction. A nil transaction with a nil
	// error means the wallet signed in place and the input is authoritative.
	Sign(ctx context.Context, tx *Transaction) (*Transaction, error)
}

// PaymentWallet authorizes a paid bulk upload.
type PaymentWallet interface {
	Type() types.WalletType
	Address() string
	// SignPayment signs the payload digest. The result is sent to the
	// bulk-upload service as the payment authorization.
	SignPayment(ctx context.Context, digest []byte) (string, error)
}

// RemoteSignerConfig configures a wallet bridge connection.
type RemoteSignerConfig struct {
	// URL is the bridge base URL.
	URL string
	// Wallet is the wallet the bridge signs for.
	Wallet types.Wallet
	// Timeout is the per-request timeout (default: 60s; signing may wait
	// for user approval).
	Timeout time.Duration
	// Headers are custom headers sent with every request.
	Headers map[string]string
}

// RemoteSigner delegates signing to a local wallet bridge over HTTP.
//
//	POST <url>/sign          msgpack transaction -> msgpack signed transaction
//	POST <url>/sign-payment  {"wallet","digest"} -> {"signature"}
//
// It implements both Signer and PaymentWallet.
type RemoteSigner struct {
	config RemoteSignerConfig
	client *http.Client
}

// NewRemoteSigner creates a bridge-backed signer.
func NewRemoteSigner(config RemoteSignerConfig) (*RemoteSigner, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("signer URL is required")
	}
	if !config.Wallet.Connected() {
		return nil, fmt.Errorf("signer wallet type and address are required")
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &RemoteSigner{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Type implements PaymentWallet.
func (s *RemoteSigner) Type() types.WalletType { return s.config.Wallet.Type }

// Address implements Signer and PaymentWallet.
func (s *RemoteSigner) Address() string { return s.config.Wallet.Address }

// Sign implements Signer.
func (s *RemoteSigner) Sign(ctx context.Context, tx *Transaction) (*Transaction, error) {
	body, err := Encode(tx)
	if err != nil {
		return nil, err
	}

	resp, err := s.post(ctx, "/sign", "application/msgpack", body)
	if err != nil {
		return nil, err
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wallet bridge refused to sign: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxTransactionSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read signed transaction: %w", err)
	}
	return Decode(raw)
}

type signPaymentRequest struct {
	Wallet string `json:"wallet"`
	Digest string `json:"digest"`
}

type signPaymentResponse struct {
	Signature string `json:"signature"`
}

// SignPayment implements PaymentWallet.
func (s *RemoteSigner) SignPayment(ctx context.Context, digest []byte) (string, error) {
	body, err := json.Marshal(signPaymentRequest{
		Wallet: string(s.config.Wallet.Type),
		Digest: base64.RawURLEncoding.EncodeToString(digest),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment request: %w", err)
	}

	resp, err := s.post(ctx, "/sign-payment", "application/json", body)
	if err != nil {
		return "", err
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("wallet bridge refused payment: status %d", resp.StatusCode)
	}

	var out signPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode payment signature: %w", err)
	}
	if out.Signature == "" {
		return "", fmt.Errorf("wallet bridge returned an empty payment signature")
	}
	return out.Signature, nil
}

func (s *RemoteSigner) post(ctx context.Context, path, contentType string, body []byte) (*http.Response, error) {
	url := strings.TrimRight(s.config.URL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet bridge request failed: %w", err)
	}
	return resp, nil
}
