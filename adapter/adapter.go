// Package adapter defines the notification boundary for finished publishes.
//
// Adapters announce publish completion to downstream systems (release
// trackers, chat bots, indexers). Delivery is best effort: the publisher logs
// adapter failures and never lets them change a publish result.
package adapter

import (
	"context"

	"go.uber.org/multierr"
)

// EventTypePublishCompleted is the event_type of every PublishCompletedEvent.
const EventTypePublishCompleted = "publish_completed"

// Publish outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeOrphaned = "orphaned"
)

// PublishCompletedEvent is the payload sent when a publish flow finishes.
type PublishCompletedEvent struct {
	EventType   string `json:"event_type"` // always "publish_completed"
	AppName     string `json:"app_name"`
	AttemptID   string `json:"attempt_id"`
	Tier        string `json:"tier"`
	Wallet      string `json:"wallet"`
	WalletType  string `json:"wallet_type"`
	Outcome     string `json:"outcome"`
	ContentID   string `json:"content_id,omitempty"`
	AssetID     string `json:"asset_id,omitempty"`
	PermawebURL string `json:"permaweb_url,omitempty"`
	Confirmed   *bool  `json:"confirmed,omitempty"`
	Error       string `json:"error,omitempty"`
	Warning     string `json:"warning,omitempty"`
	Timestamp   string `json:"timestamp"` // RFC 3339
	DurationMs  int64  `json:"duration_ms"`
}

// Adapter publishes completion events to a downstream system.
type Adapter interface {
	// Publish sends a completion event.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *PublishCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Fanout delivers every event to all of its adapters.
type Fanout []Adapter

// Publish sends the event to each adapter and combines their errors.
func (f Fanout) Publish(ctx context.Context, event *PublishCompletedEvent) error {
	var err error
	for _, a := range f {
		err = multierr.Append(err, a.Publish(ctx, event))
	}
	return err
}

// Close closes each adapter and combines their errors.
func (f Fanout) Close() error {
	var err error
	for _, a := range f {
		err = multierr.Append(err, a.Close())
	}
	return err
}

var _ Adapter = Fanout(nil)
