package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/Jharmony/StreamVault/metrics"
	"github.com/Jharmony/StreamVault/types"
)

// sharedFactory returns a StoreFactory that always returns the given store,
// so separate ledgers see the same in-memory state.
func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return l
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(id, wallet, contentID string, success bool, offset time.Duration) PublishRecord {
	return PublishRecord{
		AttemptID:  id,
		Kind:       RecordKindPublish,
		Tier:       types.TierFull,
		Wallet:     wallet,
		WalletType: types.WalletArweave,
		UploadPath: UploadPathDirect,
		Title:      "Track " + id,
		ContentID:  contentID,
		Success:    success,
		StartedAt:  base.Add(offset),
	}
}

func TestRecordAndHistory(t *testing.T) {
	l := newTestLedger(t)
	ctx := t.Context()

	confirmed := true
	first := rec("a1", "WalletA", "tx-1", true, 0)
	first.Confirmed = &confirmed
	first.AssetID = "asset-1"
	first.RemoteWritten = true
	first.LocalWritten = true

	for _, r := range []PublishRecord{
		first,
		rec("a2", "WalletA", "", false, time.Minute),
		rec("b1", "WalletB", "tx-9", true, 2*time.Minute),
	} {
		if err := l.Record(ctx, r); err != nil {
			t.Fatalf("Record(%s): %v", r.AttemptID, err)
		}
	}

	got, err := l.History(ctx, "walleta")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].AttemptID != "a2" || got[1].AttemptID != "a1" {
		t.Errorf("order = [%s %s], want newest first", got[0].AttemptID, got[1].AttemptID)
	}

	r := got[1]
	if r.Wallet != "WalletA" || r.Tier != types.TierFull || r.AssetID != "asset-1" {
		t.Errorf("round trip lost fields: %+v", r)
	}
	if r.Confirmed == nil || !*r.Confirmed {
		t.Errorf("Confirmed = %v, want true", r.Confirmed)
	}
	if got[0].Confirmed != nil {
		t.Errorf("unset Confirmed should stay nil")
	}
	if !r.RemoteWritten || !r.LocalWritten {
		t.Errorf("persistence flags lost: %+v", r)
	}
	if !r.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", r.StartedAt, base)
	}

	all, err := l.History(ctx, "")
	if err != nil {
		t.Fatalf("History(all): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d records, want 3", len(all))
	}
}

func TestHistory_WalletPrefixNoCollision(t *testing.T) {
	l := newTestLedger(t)
	ctx := t.Context()

	_ = l.Record(ctx, rec("1", "ab", "", true, 0))
	_ = l.Record(ctx, rec("2", "abc", "", true, 0))

	got, err := l.History(ctx, "ab")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].AttemptID != "1" {
		t.Errorf("got %+v, want only attempt 1", got)
	}
}

func TestHistory_Empty(t *testing.T) {
	got, err := newTestLedger(t).History(t.Context(), "w")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestOrphans(t *testing.T) {
	l := newTestLedger(t)
	ctx := t.Context()

	records := []PublishRecord{
		rec("ok", "w", "tx-ok", true, 0),
		rec("orphan", "w", "tx-orphan", false, time.Minute),
		rec("nothing-uploaded", "w", "", false, 2*time.Minute),
		rec("fixed", "w", "tx-fixed", false, 3*time.Minute),
	}
	attach := rec("attach", "w", "tx-fixed", true, 4*time.Minute)
	attach.Kind = RecordKindAttach
	records = append(records, attach)

	for _, r := range records {
		if err := l.Record(ctx, r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := l.Orphans(ctx, "w")
	if err != nil {
		t.Fatalf("Orphans: %v", err)
	}
	if len(got) != 1 || got[0].ContentID != "tx-orphan" {
		t.Fatalf("orphans = %+v, want only tx-orphan", got)
	}
}

func TestRecord_RequiresAttemptID(t *testing.T) {
	if err := newTestLedger(t).Record(t.Context(), PublishRecord{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestLedger_SharedStore(t *testing.T) {
	store := lode.NewMemory()

	w, err := New(sharedFactory(store), BackendMemory)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Record(t.Context(), rec("x", "w", "tx", true, 0)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	r, err := New(sharedFactory(store), BackendMemory)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := r.History(t.Context(), "w")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].ContentID != "tx" {
		t.Errorf("got %+v", got)
	}
}

func TestLatestMetrics(t *testing.T) {
	l := newTestLedger(t)
	ctx := t.Context()

	if _, err := l.LatestMetrics(ctx, "w"); !errors.Is(err, ErrNoMetricsFound) {
		t.Fatalf("expected ErrNoMetricsFound on empty ledger, got %v", err)
	}

	older := metrics.Snapshot{PublishesStarted: 1, WalletType: "arweave", LedgerBackend: BackendMemory}
	newer := metrics.Snapshot{
		PublishesStarted:   3,
		PublishesSucceeded: 2,
		RejectionsByReason: map[string]int64{"sample_too_large": 1},
		WalletType:         "arweave",
		LedgerBackend:      BackendMemory,
	}
	other := metrics.Snapshot{PublishesStarted: 99}

	if err := l.WriteMetrics(ctx, "w", older, base); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}
	_ = l.Record(ctx, rec("between", "w", "tx", true, 0))
	if err := l.WriteMetrics(ctx, "w", newer, base.Add(time.Hour)); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}
	if err := l.WriteMetrics(ctx, "w2", other, base.Add(2*time.Hour)); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}

	got, err := l.LatestMetrics(ctx, "W")
	if err != nil {
		t.Fatalf("LatestMetrics: %v", err)
	}
	if got.Snapshot.PublishesStarted != 3 || got.Snapshot.PublishesSucceeded != 2 {
		t.Errorf("snapshot = %+v, want the newer one", got.Snapshot)
	}
	if got.Snapshot.RejectionsByReason["sample_too_large"] != 1 {
		t.Errorf("RejectionsByReason = %v", got.Snapshot.RejectionsByReason)
	}
	if !got.RecordedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("RecordedAt = %v", got.RecordedAt)
	}

	// Metrics records never show up as publish history.
	history, _ := l.History(ctx, "w")
	if len(history) != 1 {
		t.Errorf("history = %d records, want 1", len(history))
	}
}

func TestParseS3Path(t *testing.T) {
	tests := []struct {
		in, bucket, prefix string
	}{
		{"bucket", "bucket", ""},
		{"bucket/prefix", "bucket", "prefix"},
		{"bucket/a/b", "bucket", "a/b"},
	}
	for _, tt := range tests {
		b, p := ParseS3Path(tt.in)
		if b != tt.bucket || p != tt.prefix {
			t.Errorf("ParseS3Path(%q) = %q, %q", tt.in, b, p)
		}
	}
}

func TestMatchesPartitionValue(t *testing.T) {
	path := "datasets/streamvault/partitions/wallet=abc/day=2026-03-01/record_kind=publish/data.jsonl"
	if !matchesPartitionValue(path, "wallet", "abc") {
		t.Error("expected exact match")
	}
	if matchesPartitionValue(path, "wallet", "ab") {
		t.Error("prefix must not match")
	}
}
