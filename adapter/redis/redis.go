// Package redis publishes completion events as JSON to a Redis pub/sub channel.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Jharmony/StreamVault/adapter"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "streamvault:publish_completed"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Config configures the Redis pub/sub adapter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: streamvault:publish_completed).
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure.
	Retries int
	// InitialBackoff is the first retry delay (default 500ms).
	InitialBackoff time.Duration
}

// Adapter publishes completion events via Redis PUBLISH.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis pub/sub adapter from the given config.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// publish performs one PUBLISH and returns the number of receivers.
func (a *Adapter) publish(ctx context.Context, body []byte) (int64, error) {
	publishCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	n, err := a.client.Publish(publishCtx, a.config.Channel, body).Result()
	if errors.Is(err, goredis.ErrClosed) {
		return 0, backoff.Permanent(err)
	}
	return n, err
}

// Publish sends the event, retrying failures with exponential back-off.
func (a *Adapter) Publish(ctx context.Context, event *adapter.PublishCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = a.config.InitialBackoff
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(a.config.Retries)), ctx)

	attempts := 0
	err = backoff.Retry(func() error {
		attempts++
		_, err := a.publish(ctx, body)
		return err
	}, b)
	if err != nil {
		return fmt.Errorf("redis: failed after %d attempts: %w", attempts, err)
	}
	return nil
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Verify Adapter implements the adapter interface.
var _ adapter.Adapter = (*Adapter)(nil)
