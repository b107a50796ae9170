package transfer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Jharmony/StreamVault/iox"
	"github.com/Jharmony/StreamVault/log"
	"github.com/Jharmony/StreamVault/types"
)

// ProgressKind is the phase a ProgressEvent reports.
type ProgressKind string

// Progress phases.
const (
	ProgressStart    ProgressKind = "start"
	ProgressUpload   ProgressKind = "progress"
	ProgressError    ProgressKind = "error"
	ProgressComplete ProgressKind = "success"
)

// ProgressEvent reports paid upload progress.
type ProgressEvent struct {
	Kind           ProgressKind
	TotalBytes     int64
	ProcessedBytes int64
	// Err is set for ProgressError.
	Err error
}

// ProgressFunc receives progress events. Upload progress is reported from
// the HTTP transport goroutine; implementations must not block.
type ProgressFunc func(ProgressEvent)

// BulkUpload is one paid upload request.
type BulkUpload struct {
	Currency         types.Currency
	Data             []byte
	Tags             []types.Tag
	PaymentAddress   string
	PaymentSignature string
}

// BulkClient posts payloads to a bulk-upload service.
type BulkClient struct {
	url    string
	client *http.Client
}

// NewBulkClient creates a bulk-upload client. A zero timeout defaults to 10m;
// paid uploads have no size ceiling.
func NewBulkClient(url string, timeout time.Duration) *BulkClient {
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	return &BulkClient{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

type bulkResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// Upload posts the payload to <url>/v1/tx/<currency> and returns the content
// identifier. All failures are *ProviderError.
func (c *BulkClient) Upload(ctx context.Context, up BulkUpload, onProgress ProgressFunc) (string, error) {
	tagJSON, err := json.Marshal(up.Tags)
	if err != nil {
		return "", &ProviderError{Err: fmt.Errorf("failed to encode tags: %w", err)}
	}

	body := &countingReader{r: bytes.NewReader(up.Data), total: int64(len(up.Data)), onProgress: onProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/tx/"+string(up.Currency), body)
	if err != nil {
		return "", &ProviderError{Err: err}
	}
	req.ContentLength = int64(len(up.Data))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Payment-Address", up.PaymentAddress)
	req.Header.Set("X-Payment-Signature", up.PaymentSignature)
	req.Header.Set("X-Upload-Tags", base64.RawURLEncoding.EncodeToString(tagJSON))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ProviderError{Err: err}
	}
	defer iox.DrainClose(resp.Body)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var out bulkResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out.ID == "" {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: "response missing id"}
	}
	return out.ID, nil
}

// countingReader reports bytes read through onProgress.
type countingReader struct {
	r          io.Reader
	total      int64
	read       atomic.Int64
	onProgress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.onProgress != nil {
		c.onProgress(ProgressEvent{
			Kind:           ProgressUpload,
			TotalBytes:     c.total,
			ProcessedBytes: c.read.Add(int64(n)),
		})
	}
	return n, err
}

// PaidUploader uploads through the bulk service, paying with the wallet that
// matches the selected currency.
type PaidUploader struct {
	client     *BulkClient
	wallets    map[types.WalletType]PaymentWallet
	onProgress ProgressFunc
	logger     *log.Logger
}

// PaidOption configures a PaidUploader.
type PaidOption func(*PaidUploader)

// WithProgress registers a progress listener.
func WithProgress(fn ProgressFunc) PaidOption {
	return func(u *PaidUploader) { u.onProgress = fn }
}

// WithPaidLogger sets the logger.
func WithPaidLogger(l *log.Logger) PaidOption {
	return func(u *PaidUploader) { u.logger = log.OrNop(l) }
}

// NewPaidUploader creates a paid uploader. Each wallet is registered under
// its type; a later wallet of the same type replaces an earlier one.
func NewPaidUploader(client *BulkClient, wallets []PaymentWallet, opts ...PaidOption) *PaidUploader {
	u := &PaidUploader{
		client:  client,
		wallets: make(map[types.WalletType]PaymentWallet, len(wallets)),
		logger:  log.NewNop(),
	}
	for _, w := range wallets {
		if w != nil {
			u.wallets[w.Type()] = w
		}
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload pays for and uploads data, returning its content identifier.
func (u *PaidUploader) Upload(ctx context.Context, data []byte, tags []types.Tag, currency types.Currency) (string, error) {
	need, ok := types.RequiredWallet(currency)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, currency)
	}
	wallet, ok := u.wallets[need]
	if !ok {
		return "", fmt.Errorf("%w: %s needs a %s wallet", ErrNoPaymentWallet, currency, need)
	}

	total := int64(len(data))
	u.emit(ProgressEvent{Kind: ProgressStart, TotalBytes: total})

	digest := sha256.Sum256(data)
	sig, err := wallet.SignPayment(ctx, digest[:])
	if err != nil {
		perr := &ProviderError{Err: fmt.Errorf("payment authorization failed: %w", err)}
		u.emit(ProgressEvent{Kind: ProgressError, TotalBytes: total, Err: perr})
		return "", perr
	}

	id, err := u.client.Upload(ctx, BulkUpload{
		Currency:         currency,
		Data:             data,
		Tags:             withStandardTags(tags, ""),
		PaymentAddress:   wallet.Address(),
		PaymentSignature: sig,
	}, u.onProgress)
	if err != nil {
		u.emit(ProgressEvent{Kind: ProgressError, TotalBytes: total, Err: err})
		return "", err
	}

	u.emit(ProgressEvent{Kind: ProgressComplete, TotalBytes: total, ProcessedBytes: total})
	u.logger.Info("paid upload complete", map[string]any{
		"content_id": id,
		"currency":   string(currency),
		"bytes":      total,
	})
	return id, nil
}

func (u *PaidUploader) emit(ev ProgressEvent) {
	fields := map[string]any{
		"phase":           string(ev.Kind),
		"total_bytes":     ev.TotalBytes,
		"processed_bytes": ev.ProcessedBytes,
	}
	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
		u.logger.Warn("paid upload progress", fields)
	} else {
		u.logger.Debug("paid upload progress", fields)
	}
	if u.onProgress != nil {
		u.onProgress(ev)
	}
}
