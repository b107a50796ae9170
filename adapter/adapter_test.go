package adapter

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/multierr"
)

type recordingAdapter struct {
	events []*PublishCompletedEvent
	err    error
	closed bool
}

func (r *recordingAdapter) Publish(_ context.Context, e *PublishCompletedEvent) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingAdapter) Close() error {
	r.closed = true
	return r.err
}

func TestFanout_DeliversToAll(t *testing.T) {
	a, b := &recordingAdapter{}, &recordingAdapter{}
	f := Fanout{a, b}

	ev := &PublishCompletedEvent{EventType: EventTypePublishCompleted, AttemptID: "x"}
	if err := f.Publish(t.Context(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("deliveries = %d, %d", len(a.events), len(b.events))
	}
}

func TestFanout_CombinesErrors(t *testing.T) {
	e1, e2 := errors.New("webhook down"), errors.New("redis down")
	a, ok, b := &recordingAdapter{err: e1}, &recordingAdapter{}, &recordingAdapter{err: e2}
	f := Fanout{a, ok, b}

	err := f.Publish(t.Context(), &PublishCompletedEvent{})
	if len(multierr.Errors(err)) != 2 {
		t.Fatalf("err = %v, want two errors", err)
	}
	if len(ok.events) != 1 {
		t.Error("healthy adapter skipped after a failure")
	}

	_ = f.Close()
	if !a.closed || !ok.closed || !b.closed {
		t.Error("not every adapter closed")
	}
}
