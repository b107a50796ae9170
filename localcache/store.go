// Package localcache persists per-wallet publish records on the device.
//
// State is a small key/value table in SQLite. Keys follow the browser
// storage layout so records exported from either side line up:
//
//	streamvault:samples:<lowercase address>    JSON array, newest first, capped at 50
//	streamvault:profileId:<lowercase address>  profile identifier override
//	streamvault:synced:<lowercase address>:<profile id>  content ids already in that profile
package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"

	"github.com/Jharmony/StreamVault/types"
)

const (
	samplesKeyPrefix = "streamvault:samples:"
	profileKeyPrefix = "streamvault:profileId:"
	syncedKeyPrefix  = "streamvault:synced:"
)

// ErrCorruptSamples is returned when a stored sample list cannot be decoded.
// The stored value is left untouched.
var ErrCorruptSamples = errors.New("stored sample list is corrupt")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS local_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SamplesKey returns the storage key of a wallet's sample list.
func SamplesKey(address string) string {
	return samplesKeyPrefix + strings.ToLower(address)
}

// ProfileKey returns the storage key of a wallet's profile override.
func ProfileKey(address string) string {
	return profileKeyPrefix + strings.ToLower(address)
}

// SyncedKey returns the storage key of the content ids already written to
// a wallet's profile.
func SyncedKey(address, profileID string) string {
	return syncedKeyPrefix + strings.ToLower(address) + ":" + profileID
}

// Store is the on-device state store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the database at path. The parent directory is
// created when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer per process; other processes wait on busy_timeout.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendSample records rec at the front of the wallet's sample list.
// Re-appending a content identifier moves it to the front without
// duplicating it. The list is capped at types.LocalSampleCap entries.
func (s *Store) AppendSample(ctx context.Context, address string, rec types.ProfileSampleRecord) error {
	if address == "" {
		return errors.New("wallet address is required")
	}
	key := SamplesKey(address)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		existing, err := readSamples(ctx, tx, key)
		if err != nil {
			return err
		}

		next := make([]types.ProfileSampleRecord, 0, len(existing)+1)
		next = append(next, rec)
		for _, r := range existing {
			if r.ContentID == rec.ContentID {
				continue
			}
			next = append(next, r)
		}
		if len(next) > types.LocalSampleCap {
			next = next[:types.LocalSampleCap]
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode samples: %w", err)
		}
		if err := put(ctx, tx, key, string(raw), s.now()); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// Samples returns the wallet's sample list, newest first.
func (s *Store) Samples(ctx context.Context, address string) ([]types.ProfileSampleRecord, error) {
	var out []types.ProfileSampleRecord
	err := retryOnBusy(ctx, func() error {
		var err error
		out, err = readSamples(ctx, s.db, SamplesKey(address))
		return err
	})
	return out, err
}

// ProfileOverride returns the profile identifier pinned for the wallet.
func (s *Store) ProfileOverride(ctx context.Context, address string) (string, bool, error) {
	var (
		val   string
		found bool
	)
	err := retryOnBusy(ctx, func() error {
		var err error
		val, found, err = get(ctx, s.db, ProfileKey(address))
		return err
	})
	if err != nil || !found || val == "" {
		return "", false, err
	}
	return val, true, nil
}

// SetProfileOverride pins a profile identifier for the wallet.
func (s *Store) SetProfileOverride(ctx context.Context, address, profileID string) error {
	if strings.TrimSpace(profileID) == "" {
		return errors.New("profile id is required")
	}
	return retryOnBusy(ctx, func() error {
		return put(ctx, s.db, ProfileKey(address), strings.TrimSpace(profileID), s.now())
	})
}

// ClearProfileOverride removes the wallet's pinned profile identifier.
func (s *Store) ClearProfileOverride(ctx context.Context, address string) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, ProfileKey(address))
		return err
	})
}

// SyncedIDs returns the content ids recorded as present in the profile.
func (s *Store) SyncedIDs(ctx context.Context, address, profileID string) (map[string]bool, error) {
	var ids []string
	err := retryOnBusy(ctx, func() error {
		var err error
		ids, err = readIDs(ctx, s.db, SyncedKey(address, profileID))
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// MarkSynced records ids as present in the profile.
func (s *Store) MarkSynced(ctx context.Context, address, profileID string, ids ...string) error {
	if address == "" || profileID == "" {
		return errors.New("wallet address and profile id are required")
	}
	if len(ids) == 0 {
		return nil
	}
	key := SyncedKey(address, profileID)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		existing, err := readIDs(ctx, tx, key)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if !slices.Contains(existing, id) {
				existing = append(existing, id)
			}
		}

		raw, err := json.Marshal(existing)
		if err != nil {
			return fmt.Errorf("encode synced ids: %w", err)
		}
		if err := put(ctx, tx, key, string(raw), s.now()); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func get(ctx context.Context, q querier, key string) (string, bool, error) {
	var val string
	err := q.QueryRowContext(ctx, `SELECT value FROM local_state WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return val, true, nil
}

func put(ctx context.Context, q querier, key, value string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// readSamples decodes the sample list stored at key.
func readSamples(ctx context.Context, q querier, key string) ([]types.ProfileSampleRecord, error) {
	raw, found, err := get(ctx, q, key)
	if err != nil || !found {
		return nil, err
	}
	var out []types.ProfileSampleRecord
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptSamples, key, err)
	}
	return out, nil
}

func readIDs(ctx context.Context, q querier, key string) ([]string, error) {
	raw, found, err := get(ctx, q, key)
	if err != nil || !found {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs op, retrying SQLITE_BUSY failures with bounded
// exponential back-off. Other errors return immediately.
func retryOnBusy(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = busyRetryInitialBackoff
	eb.MaxInterval = busyRetryMaxBackoff
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, busyRetryAttempts-1), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isSQLiteBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
