// Package ledger keeps an append-only record of publish attempts in a Lode
// dataset.
//
// Records are JSONL, Hive-partitioned by wallet, day and record kind:
//
//	datasets/streamvault/partitions/wallet=<addr>/day=<YYYY-MM-DD>/record_kind=<kind>/...
//
// The ledger is how uploads orphaned by a failed mint are found again.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/Jharmony/StreamVault/metrics"
)

// DatasetID is the Lode dataset publish records are written to.
const DatasetID = "streamvault"

// Storage backend labels reported by Backend().
const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// ErrNoMetricsFound is returned when no metrics records exist for a wallet.
var ErrNoMetricsFound = errors.New("no metrics records found")

// Ledger appends and queries publish records.
type Ledger struct {
	dataset lode.Dataset
	backend string

	mu sync.Mutex // serializes writes
}

// New creates a ledger over a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func New(factory lode.StoreFactory, backend string) (*Ledger, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(DatasetID),
		factory,
		lode.WithHiveLayout("wallet", "day", "record_kind"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, DatasetID)
	}
	return &Ledger{dataset: ds, backend: backend}, nil
}

// NewFS creates a ledger with filesystem storage rooted at root.
func NewFS(root string) (*Ledger, error) {
	return New(lode.NewFSFactory(root), BackendFS)
}

// NewMemory creates a ledger that lives only as long as the process.
func NewMemory() (*Ledger, error) {
	return New(lode.NewMemoryFactory(), BackendMemory)
}

// Backend returns the storage backend label.
func (l *Ledger) Backend() string {
	if l == nil {
		return ""
	}
	return l.backend
}

// Record appends one publish record.
func (l *Ledger) Record(ctx context.Context, rec PublishRecord) error {
	if rec.AttemptID == "" {
		return errors.New("ledger record requires an attempt id")
	}
	if rec.Kind == "" {
		rec.Kind = RecordKindPublish
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	return l.write(ctx, toRecordMap(rec))
}

// WriteMetrics appends a metrics snapshot for the wallet.
func (l *Ledger) WriteMetrics(ctx context.Context, wallet string, snap metrics.Snapshot, at time.Time) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode metrics snapshot: %w", err)
	}
	m := make(map[string]any)
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("encode metrics snapshot: %w", err)
	}
	m["record_kind"] = RecordKindMetrics
	m["wallet"] = walletPartition(wallet)
	m["day"] = DeriveDay(at)
	m["recorded_at"] = formatTime(at)
	return l.write(ctx, m)
}

func (l *Ledger) write(ctx context.Context, record map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return WrapWriteError(err, fmt.Sprintf("%s/wallet=%v", DatasetID, record["wallet"]))
	}
	return nil
}

// History returns the wallet's publish and attach records, newest first.
// An empty wallet returns records of every wallet.
func (l *Ledger) History(ctx context.Context, wallet string) ([]PublishRecord, error) {
	var filter string
	if wallet != "" {
		filter = walletPartition(wallet)
	}

	seen := make(map[string]struct{})
	var out []PublishRecord
	err := l.scan(ctx, filter, func(m map[string]any) bool {
		kind := toString(m["record_kind"])
		if kind != RecordKindPublish && kind != RecordKindAttach {
			return true
		}
		if filter != "" && toString(m["wallet"]) != filter {
			return true
		}
		rec := fromRecordMap(m)
		if _, dup := seen[rec.AttemptID]; dup {
			return true
		}
		seen[rec.AttemptID] = struct{}{}
		out = append(out, rec)
		return true
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b PublishRecord) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return out, nil
}

// Orphans returns uploads left behind by failed publishes that no later
// publish or attach of the same content identifier has resolved.
func (l *Ledger) Orphans(ctx context.Context, wallet string) ([]PublishRecord, error) {
	history, err := l.History(ctx, wallet)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]struct{})
	for _, rec := range history {
		if rec.Success && rec.ContentID != "" {
			resolved[rec.ContentID] = struct{}{}
		}
	}

	var out []PublishRecord
	for _, rec := range history {
		if !rec.Orphaned() {
			continue
		}
		if _, ok := resolved[rec.ContentID]; ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// MetricsRecord is a metrics snapshot read back from the ledger.
type MetricsRecord struct {
	Wallet     string
	RecordedAt time.Time
	Snapshot   metrics.Snapshot
}

// LatestMetrics returns the most recent metrics snapshot for the wallet.
// Returns ErrNoMetricsFound if none exist.
func (l *Ledger) LatestMetrics(ctx context.Context, wallet string) (*MetricsRecord, error) {
	snapshots, err := l.dataset.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, DatasetID+"/snapshots")
	}
	filter := walletPartition(wallet)

	// Snapshots are ordered by creation time; walk latest first.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !snapshotMatchesFilter(snap, "record_kind", RecordKindMetrics) ||
			!snapshotMatchesFilter(snap, "wallet", filter) {
			continue
		}

		data, err := l.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", DatasetID, snap.ID))
		}
		// Manifest paths are a coarse pre-filter; record fields are authoritative.
		for j := len(data) - 1; j >= 0; j-- {
			m, ok := data[j].(map[string]any)
			if !ok || m["record_kind"] != RecordKindMetrics || toString(m["wallet"]) != filter {
				continue
			}
			return decodeMetrics(m)
		}
	}
	return nil, ErrNoMetricsFound
}

func decodeMetrics(m map[string]any) (*MetricsRecord, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("decode metrics record: %w", err)
	}
	var snap metrics.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode metrics record: %w", err)
	}
	return &MetricsRecord{
		Wallet:     toString(m["wallet"]),
		RecordedAt: parseTime(m["recorded_at"]),
		Snapshot:   snap,
	}, nil
}

// scan reads every snapshot whose files match the wallet partition and
// passes each record to fn until fn returns false.
func (l *Ledger) scan(ctx context.Context, wallet string, fn func(map[string]any) bool) error {
	snapshots, err := l.dataset.Snapshots(ctx)
	if err != nil {
		return WrapReadError(err, DatasetID+"/snapshots")
	}
	for _, snap := range snapshots {
		if !snapshotMatchesFilter(snap, "wallet", wallet) {
			continue
		}
		data, err := l.dataset.Read(ctx, snap.ID)
		if err != nil {
			return WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", DatasetID, snap.ID))
		}
		for _, item := range data {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if !fn(m) {
				return nil
			}
		}
	}
	return nil
}
