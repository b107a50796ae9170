// Package confirm polls network gateways until an upload is accepted.
//
// Lack of confirmation is a normal outcome: Await reports false, never an
// error, when the timeout elapses.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/Jharmony/StreamVault/iox"
	"github.com/Jharmony/StreamVault/log"
)

// Defaults for confirmation polling.
const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 45 * time.Second
)

var errNotAccepted = errors.New("not yet accepted")

// Gateway reports the acceptance status of a content identifier.
type Gateway interface {
	// GetStatus returns the HTTP-equivalent status for id. 200 means accepted.
	GetStatus(ctx context.Context, id string) (int, error)
}

// Config configures a Poller.
type Config struct {
	// Interval between rounds (default: 2s).
	Interval time.Duration
	// Timeout bounds the whole wait (default: 45s).
	Timeout time.Duration
	// Timer overrides the wait timer. Intended for tests.
	Timer backoff.Timer
}

// Poller waits for a content identifier to be accepted by either gateway.
type Poller struct {
	primary   Gateway
	secondary Gateway
	interval  time.Duration
	timeout   time.Duration
	timer     backoff.Timer
	logger    *log.Logger
}

// NewPoller creates a poller probing primary then secondary each round.
// Either gateway may be nil.
func NewPoller(primary, secondary Gateway, config Config, logger *log.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Poller{
		primary:   primary,
		secondary: secondary,
		interval:  config.Interval,
		timeout:   config.Timeout,
		timer:     config.Timer,
		logger:    log.OrNop(logger),
	}
}

// Rounds returns the maximum number of probe rounds: ceil(timeout/interval).
func (p *Poller) Rounds() int {
	n := int(p.timeout / p.interval)
	if p.timeout%p.interval != 0 {
		n++
	}
	return max(n, 1)
}

// Await polls until id is accepted, the round cap is reached, the timeout
// elapses or ctx is done. It reports whether a gateway accepted id.
func (p *Poller) Await(ctx context.Context, id string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rounds := p.Rounds()
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.interval), uint64(rounds-1)),
		ctx,
	)

	round := 0
	op := func() error {
		round++
		if p.accepted(ctx, p.primary, id) || p.accepted(ctx, p.secondary, id) {
			return nil
		}
		return errNotAccepted
	}

	err := backoff.RetryNotifyWithTimer(op, b, nil, p.timer)
	confirmed := err == nil
	p.logger.Info("confirmation wait finished", map[string]any{
		"content_id": id,
		"confirmed":  confirmed,
		"rounds":     round,
	})
	return confirmed
}

// accepted probes one gateway. Probe errors are swallowed.
func (p *Poller) accepted(ctx context.Context, gw Gateway, id string) bool {
	if gw == nil {
		return false
	}
	status, err := gw.GetStatus(ctx, id)
	if err != nil {
		p.logger.Debug("gateway probe failed", map[string]any{
			"content_id": id,
			"error":      err.Error(),
		})
		return false
	}
	return status == http.StatusOK
}

// HTTPGateway reads transaction status from <base>/tx/<id>/status.
type HTTPGateway struct {
	base   string
	client *http.Client
}

// NewHTTPGateway creates a gateway client. A nil client gets a 10s timeout.
func NewHTTPGateway(base string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{base: strings.TrimRight(base, "/"), client: client}
}

// GetStatus implements Gateway.
func (g *HTTPGateway) GetStatus(ctx context.Context, id string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/tx/%s/status", g.base, id), nil)
	if err != nil {
		return 0, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer iox.DrainClose(resp.Body)
	return resp.StatusCode, nil
}
