package ledger

import (
	"strings"
	"time"

	"github.com/Jharmony/StreamVault/types"
)

// RecordKind discriminator values. The kind is also the last partition key.
const (
	RecordKindPublish = "publish"
	RecordKindAttach  = "attach"
	RecordKindMetrics = "metrics"
)

// Upload paths recorded on publish records.
const (
	UploadPathDirect = "direct"
	UploadPathPaid   = "paid"
)

// PublishRecord is the ledger entry for one publish or attach attempt.
type PublishRecord struct {
	AttemptID  string
	Kind       string
	Tier       types.Tier
	Wallet     string
	WalletType types.WalletType
	UploadPath string
	Currency   string

	Title  string
	Artist string

	ContentID string
	AssetID   string
	ArtworkID string

	Success   bool
	Confirmed *bool
	Error     string
	Warning   string

	RemoteWritten bool
	RemoteSkipped bool
	LocalWritten  bool

	StartedAt   time.Time
	CompletedAt time.Time
}

// Orphaned reports whether the attempt left an upload behind without a
// successful publish.
func (r PublishRecord) Orphaned() bool {
	return !r.Success && r.ContentID != ""
}

// DeriveDay computes the partition day. Format: YYYY-MM-DD in UTC.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// walletPartition normalizes an address for use as a partition value.
func walletPartition(address string) string {
	if address == "" {
		return "unknown"
	}
	return strings.ToLower(address)
}

func toRecordMap(r PublishRecord) map[string]any {
	m := map[string]any{
		"record_kind":    r.Kind,
		"attempt_id":     r.AttemptID,
		"tier":           string(r.Tier),
		"wallet_address": r.Wallet,
		"wallet_type":    string(r.WalletType),
		"upload_path":    r.UploadPath,
		"currency":       r.Currency,
		"title":          r.Title,
		"artist":         r.Artist,
		"content_id":     r.ContentID,
		"asset_id":       r.AssetID,
		"artwork_id":     r.ArtworkID,
		"success":        r.Success,
		"error":          r.Error,
		"warning":        r.Warning,
		"remote_written": r.RemoteWritten,
		"remote_skipped": r.RemoteSkipped,
		"local_written":  r.LocalWritten,
		"started_at":     formatTime(r.StartedAt),
		"completed_at":   formatTime(r.CompletedAt),

		// Partition keys (used by Lode HiveLayout)
		"wallet": walletPartition(r.Wallet),
		"day":    DeriveDay(r.StartedAt),
	}
	if r.Confirmed != nil {
		m["confirmed"] = *r.Confirmed
	}
	return m
}

func fromRecordMap(m map[string]any) PublishRecord {
	r := PublishRecord{
		AttemptID:     toString(m["attempt_id"]),
		Kind:          toString(m["record_kind"]),
		Tier:          types.Tier(toString(m["tier"])),
		Wallet:        toString(m["wallet_address"]),
		WalletType:    types.WalletType(toString(m["wallet_type"])),
		UploadPath:    toString(m["upload_path"]),
		Currency:      toString(m["currency"]),
		Title:         toString(m["title"]),
		Artist:        toString(m["artist"]),
		ContentID:     toString(m["content_id"]),
		AssetID:       toString(m["asset_id"]),
		ArtworkID:     toString(m["artwork_id"]),
		Success:       toBool(m["success"]),
		Error:         toString(m["error"]),
		Warning:       toString(m["warning"]),
		RemoteWritten: toBool(m["remote_written"]),
		RemoteSkipped: toBool(m["remote_skipped"]),
		LocalWritten:  toBool(m["local_written"]),
		StartedAt:     parseTime(m["started_at"]),
		CompletedAt:   parseTime(m["completed_at"]),
	}
	if v, ok := m["confirmed"].(bool); ok {
		r.Confirmed = &v
	}
	return r
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v any) time.Time {
	t, err := time.Parse(time.RFC3339Nano, toString(v))
	if err != nil {
		return time.Time{}
	}
	return t
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}
