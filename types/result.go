package types

import "time"

// TransferResult is the outcome of an upload plus confirmation polling.
// Confirmed=false is a valid terminal state: acceptance is eventual.
type TransferResult struct {
	ContentID   string   `json:"contentId"`
	Confirmed   bool     `json:"confirmed"`
	GatewayURLs []string `json:"gatewayUrls"`
}

// PersistenceReport records which of the two post-success writes succeeded.
// The writes are independent; there is no transaction between them.
type PersistenceReport struct {
	// Remote is true when the record was appended to the profile document.
	Remote bool `json:"remote"`
	// RemoteSkipped is true when no profile exists or the store is not configured.
	RemoteSkipped bool `json:"remoteSkipped,omitempty"`
	// Local is true when the record was written to the on-device cache.
	Local bool `json:"local"`
}

// PublishResult is what the orchestrator hands back to the caller.
// Success=true with Confirmed=false means the upload was accepted but
// finality is pending. A failed result may still carry a ContentID when a
// later step failed after the upload completed.
type PublishResult struct {
	Success     bool   `json:"success"`
	Tier        Tier   `json:"tier,omitempty"`
	ContentID   string `json:"contentId,omitempty"`
	AssetID     string `json:"assetId,omitempty"`
	PermawebURL string `json:"permawebUrl,omitempty"`
	ArioURL     string `json:"arioUrl,omitempty"`
	Confirmed   *bool  `json:"confirmed,omitempty"`
	Error       string `json:"error,omitempty"`
	// Rejected is true when the request failed validation and nothing was
	// uploaded.
	Rejected bool `json:"rejected,omitempty"`
	// Warning is a non-fatal message attached to an otherwise successful result.
	Warning     string             `json:"warning,omitempty"`
	Persistence *PersistenceReport `json:"persistence,omitempty"`
}

// Orphaned reports whether the result describes an upload that completed
// without the publish as a whole succeeding.
func (r *PublishResult) Orphaned() bool {
	return r != nil && !r.Success && r.ContentID != ""
}

// ProfileSampleRecord is appended to the profile's Samples[] list and
// mirrored into the local cache. Records are never mutated once written.
type ProfileSampleRecord struct {
	ContentID   string `json:"contentId"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	PermawebURL string `json:"permawebUrl,omitempty"`
	ArioURL     string `json:"arioUrl,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// NewProfileSampleRecord builds a record stamped with the given time.
func NewProfileSampleRecord(contentID, title, artist string, gw Gateways, at time.Time) ProfileSampleRecord {
	return ProfileSampleRecord{
		ContentID:   contentID,
		Title:       title,
		Artist:      artist,
		PermawebURL: gw.PrimaryURL(contentID),
		ArioURL:     gw.SecondaryURL(contentID),
		CreatedAt:   at.UTC().Format(time.RFC3339Nano),
	}
}

// PublishState is the orchestrator state visible to callers.
type PublishState string

// Orchestrator states. Confirming happens inside the upload phase; minting
// is not exposed separately.
const (
	StateIdle       PublishState = "idle"
	StateUploading  PublishState = "uploading"
	StateConfirming PublishState = "confirming"
	StateDone       PublishState = "done"
	StateErrored    PublishState = "errored"
)

// Busy reports whether a publish flow is in flight.
func (s PublishState) Busy() bool {
	return s == StateUploading || s == StateConfirming
}
