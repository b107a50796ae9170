// Package metrics provides publish pipeline metrics collection.
//
// The Collector accumulates counters across publish flows. It is a leaf
// package with no internal dependencies. Validation metrics are absorbed from
// policy.Stats rather than recorded live, avoiding double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Publish lifecycle
	PublishesStarted   int64 `json:"publishes_started"`
	PublishesSucceeded int64 `json:"publishes_succeeded"`
	PublishesFailed    int64 `json:"publishes_failed"`
	PublishesRejected  int64 `json:"publishes_rejected"`
	OrphanedUploads    int64 `json:"orphaned_uploads"`

	// Validation (absorbed from policy.Stats)
	Validations        int64            `json:"validations"`
	Rejections         int64            `json:"rejections"`
	RejectionsByReason map[string]int64 `json:"rejections_by_reason"`

	// Transfer
	DirectUploads  int64 `json:"direct_uploads"`
	PaidUploads    int64 `json:"paid_uploads"`
	UploadFailures int64 `json:"upload_failures"`
	UploadedBytes  int64 `json:"uploaded_bytes"`

	// Confirmation
	Confirmed   int64 `json:"confirmed"`
	Unconfirmed int64 `json:"unconfirmed"`

	// Minting
	MintSuccess int64 `json:"mint_success"`
	MintFailure int64 `json:"mint_failure"`

	// Dual write
	ProfileWriteSuccess int64 `json:"profile_write_success"`
	ProfileWriteFailure int64 `json:"profile_write_failure"`
	ProfileWriteSkipped int64 `json:"profile_write_skipped"`
	LocalWriteSuccess   int64 `json:"local_write_success"`
	LocalWriteFailure   int64 `json:"local_write_failure"`

	// Ledger / notifications
	LedgerWriteSuccess int64 `json:"ledger_write_success"`
	LedgerWriteFailure int64 `json:"ledger_write_failure"`
	NotifyFailure      int64 `json:"notify_failure"`

	// Dimensions (informational, set at construction)
	WalletType    string `json:"wallet_type"`
	LedgerBackend string `json:"ledger_backend"`
}

// Collector accumulates metrics across publish flows.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
	// base holds restored validation counters; absorbed policy stats are
	// added on top of it.
	base Snapshot
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(walletType, ledgerBackend string) *Collector {
	return &Collector{
		s: Snapshot{
			RejectionsByReason: make(map[string]int64),
			WalletType:         walletType,
			LedgerBackend:      ledgerBackend,
		},
	}
}

// inc applies fn under the lock. Nil-receiver safe.
func (c *Collector) inc(fn func(s *Snapshot)) {
	if c == nil {
		return
	}
	c.mu.Lock()
	fn(&c.s)
	c.mu.Unlock()
}

// --- Publish lifecycle ---

// IncPublishStarted records a publish invocation that passed validation.
func (c *Collector) IncPublishStarted() { c.inc(func(s *Snapshot) { s.PublishesStarted++ }) }

// IncPublishSucceeded records a successful publish.
func (c *Collector) IncPublishSucceeded() { c.inc(func(s *Snapshot) { s.PublishesSucceeded++ }) }

// IncPublishFailed records a publish that failed after validation.
func (c *Collector) IncPublishFailed() { c.inc(func(s *Snapshot) { s.PublishesFailed++ }) }

// IncPublishRejected records a publish rejected before any upload.
func (c *Collector) IncPublishRejected() { c.inc(func(s *Snapshot) { s.PublishesRejected++ }) }

// IncOrphanedUpload records an upload left without a successful publish.
func (c *Collector) IncOrphanedUpload() { c.inc(func(s *Snapshot) { s.OrphanedUploads++ }) }

// --- Transfer ---

// IncDirectUpload records a direct upload of n bytes.
func (c *Collector) IncDirectUpload(n int) {
	c.inc(func(s *Snapshot) {
		s.DirectUploads++
		s.UploadedBytes += int64(n)
	})
}

// IncPaidUpload records a paid bulk upload of n bytes.
func (c *Collector) IncPaidUpload(n int) {
	c.inc(func(s *Snapshot) {
		s.PaidUploads++
		s.UploadedBytes += int64(n)
	})
}

// IncUploadFailure records a failed upload on either path.
func (c *Collector) IncUploadFailure() { c.inc(func(s *Snapshot) { s.UploadFailures++ }) }

// --- Confirmation ---

// RecordConfirmation records the outcome of a confirmation wait.
func (c *Collector) RecordConfirmation(confirmed bool) {
	c.inc(func(s *Snapshot) {
		if confirmed {
			s.Confirmed++
		} else {
			s.Unconfirmed++
		}
	})
}

// --- Minting ---

// IncMintSuccess records a registry entry created.
func (c *Collector) IncMintSuccess() { c.inc(func(s *Snapshot) { s.MintSuccess++ }) }

// IncMintFailure records a registry failure.
func (c *Collector) IncMintFailure() { c.inc(func(s *Snapshot) { s.MintFailure++ }) }

// --- Dual write ---

// IncProfileWriteSuccess records a record appended to the profile document.
func (c *Collector) IncProfileWriteSuccess() { c.inc(func(s *Snapshot) { s.ProfileWriteSuccess++ }) }

// IncProfileWriteFailure records a failed profile append.
func (c *Collector) IncProfileWriteFailure() { c.inc(func(s *Snapshot) { s.ProfileWriteFailure++ }) }

// IncProfileWriteSkipped records a profile append skipped (no profile).
func (c *Collector) IncProfileWriteSkipped() { c.inc(func(s *Snapshot) { s.ProfileWriteSkipped++ }) }

// IncLocalWriteSuccess records a local cache write.
func (c *Collector) IncLocalWriteSuccess() { c.inc(func(s *Snapshot) { s.LocalWriteSuccess++ }) }

// IncLocalWriteFailure records a failed local cache write.
func (c *Collector) IncLocalWriteFailure() { c.inc(func(s *Snapshot) { s.LocalWriteFailure++ }) }

// --- Ledger / notifications ---
// Ledger counters are per-call. A ledger write covers a single attempt record.

// IncLedgerWriteSuccess records a successful ledger write.
func (c *Collector) IncLedgerWriteSuccess() { c.inc(func(s *Snapshot) { s.LedgerWriteSuccess++ }) }

// IncLedgerWriteFailure records a failed ledger write.
func (c *Collector) IncLedgerWriteFailure() { c.inc(func(s *Snapshot) { s.LedgerWriteFailure++ }) }

// IncNotifyFailure records a completion notification that could not be delivered.
func (c *Collector) IncNotifyFailure() { c.inc(func(s *Snapshot) { s.NotifyFailure++ }) }

// --- Validation (absorbed from policy.Stats) ---

// AbsorbPolicyStats copies validation counters into the collector.
// The byReason map keys are string-typed reasons to keep this package free
// of dependencies on the policy package.
func (c *Collector) AbsorbPolicyStats(validations, rejections int64, byReason map[string]int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.s.Validations = c.base.Validations + validations
	c.s.Rejections = c.base.Rejections + rejections
	c.s.RejectionsByReason = make(map[string]int64, len(byReason)+len(c.base.RejectionsByReason))
	for k, v := range c.base.RejectionsByReason {
		c.s.RejectionsByReason[k] = v
	}
	for k, v := range byReason {
		c.s.RejectionsByReason[k] += v
	}
}

// Restore continues counting from prev, typically the last snapshot
// recorded by an earlier process. Dimension labels are kept.
func (c *Collector) Restore(prev Snapshot) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	walletType, backend := c.s.WalletType, c.s.LedgerBackend
	byReason := make(map[string]int64, len(prev.RejectionsByReason))
	for k, v := range prev.RejectionsByReason {
		byReason[k] = v
	}
	prev.RejectionsByReason = byReason
	prev.WalletType, prev.LedgerBackend = walletType, backend

	c.s = prev
	c.s.RejectionsByReason = make(map[string]int64, len(byReason))
	for k, v := range byReason {
		c.s.RejectionsByReason[k] = v
	}
	c.base = prev
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.s
	s.RejectionsByReason = make(map[string]int64, len(c.s.RejectionsByReason))
	for k, v := range c.s.RejectionsByReason {
		s.RejectionsByReason[k] = v
	}
	return s
}
