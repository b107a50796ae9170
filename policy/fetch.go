package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jharmony/StreamVault/iox"
	"github.com/Jharmony/StreamVault/types"
)

// ErrStreamNotAudio is returned when a stream responds with a non-audio type.
var ErrStreamNotAudio = errors.New("stream did not return audio data")

// StreamStatusError is returned for a non-2xx stream response.
type StreamStatusError struct {
	StatusCode int
}

func (e *StreamStatusError) Error() string {
	return fmt.Sprintf("stream responded with status %d", e.StatusCode)
}

// Clip is a fetched audio prefix.
type Clip struct {
	Data        []byte
	ContentType string
}

// StreamFetcher fetches the leading bytes of an audio stream.
type StreamFetcher interface {
	FetchPrefix(ctx context.Context, url string, maxBytes int) (*Clip, error)
}

// HTTPStreamFetcher fetches stream prefixes with an HTTP range request.
type HTTPStreamFetcher struct {
	client *http.Client
}

// NewHTTPStreamFetcher creates a fetcher. A nil client gets a 30s timeout.
func NewHTTPStreamFetcher(client *http.Client) *HTTPStreamFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPStreamFetcher{client: client}
}

// FetchPrefix requests bytes=0-(maxBytes-1). The body is read up to
// maxBytes+1 so a server that ignores the range yields an oversized clip
// instead of a silent truncation.
func (f *HTTPStreamFetcher) FetchPrefix(ctx context.Context, url string, maxBytes int) (*Clip, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", maxBytes-1))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StreamStatusError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = types.DefaultAudioContentType
	}
	if !isAudio(contentType) {
		return nil, ErrStreamNotAudio
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}
	return &Clip{Data: data, ContentType: contentType}, nil
}

func isAudio(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "audio/")
}
