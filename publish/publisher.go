// Package publish drives one publish flow from validation to persistence.
//
// A Publisher runs the state machine
//
//	idle -> uploading -> confirming -> done | errored
//
// and converts every failure into a PublishResult. Nothing it calls is
// rolled back: an upload that completed before a later step failed stays on
// the network and is reported (and recorded in the ledger) as an orphan.
package publish

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jharmony/StreamVault/adapter"
	"github.com/Jharmony/StreamVault/ledger"
	"github.com/Jharmony/StreamVault/log"
	"github.com/Jharmony/StreamVault/metrics"
	"github.com/Jharmony/StreamVault/mint"
	"github.com/Jharmony/StreamVault/policy"
	"github.com/Jharmony/StreamVault/types"
)

// User-facing messages produced by the orchestrator itself.
const (
	MsgBusy              = "A publish is already in progress."
	MsgMintUnavailable   = "Atomic asset creation not available."
	MsgCreateProfile     = "Create a permaweb profile to store this on-chain."
	MsgProfileNotReady   = "Permaweb profile tools are not ready yet. Try again later."
	MsgSavedLocallyOnly  = "Upload saved locally only. Create a permaweb profile to store it on-chain."
	MsgAttachNoContentID = "Paste a content identifier to attach."
	MsgAttachNoWallet    = "Connect a wallet to attach an upload."
	MsgSampleFailed      = "Sample upload failed"
	MsgFullFailed        = "Full asset publish failed"
)

// Validator checks a request before any side effect.
type Validator interface {
	Validate(ctx context.Context, wallet types.Wallet, req types.PublishRequest) (types.PublishRequest, error)
}

// statsSource is implemented by validators that keep counters.
type statsSource interface {
	Stats() policy.Stats
}

// DirectUploader uploads through the wallet-signed free path.
type DirectUploader interface {
	Upload(ctx context.Context, data []byte, contentType string, tags []types.Tag) (string, error)
}

// PaidUploader uploads through the paid bulk-upload service.
type PaidUploader interface {
	Upload(ctx context.Context, data []byte, tags []types.Tag, currency types.Currency) (string, error)
}

// Confirmer waits for network acceptance of an upload.
type Confirmer interface {
	Await(ctx context.Context, contentID string) bool
}

// Minter creates registry entries for full-tier audio.
type Minter interface {
	Available() bool
	Mint(ctx context.Context, in mint.Input) (string, error)
}

// ProfileDirectory resolves wallet profiles and appends records to them.
type ProfileDirectory interface {
	ProfileID(ctx context.Context, address string) (string, error)
	AppendSample(ctx context.Context, profileID string, rec types.ProfileSampleRecord) error
}

// SampleCache is the on-device record store.
type SampleCache interface {
	AppendSample(ctx context.Context, address string, rec types.ProfileSampleRecord) error
	Samples(ctx context.Context, address string) ([]types.ProfileSampleRecord, error)
}

// SyncTracker remembers which records already reached a profile. A
// SampleCache that implements it lets SyncLocal skip them.
type SyncTracker interface {
	SyncedIDs(ctx context.Context, address, profileID string) (map[string]bool, error)
	MarkSynced(ctx context.Context, address, profileID string, ids ...string) error
}

// Recorder appends attempt records to the publish ledger.
type Recorder interface {
	Record(ctx context.Context, rec ledger.PublishRecord) error
}

// StateFunc observes state transitions.
type StateFunc func(types.PublishState)

// Config wires a Publisher. Validator and Direct are required; every other
// collaborator may be nil.
type Config struct {
	Validator Validator
	Direct    DirectUploader
	// Paid is used by full-tier requests with PaidUpload set.
	Paid      PaidUploader
	Confirmer Confirmer
	// Minter is required for full-tier publishes only.
	Minter Minter

	// Profiles and Cache are the two post-success write targets.
	Profiles ProfileDirectory
	Cache    SampleCache

	Ledger   Recorder
	Notifier adapter.Adapter

	Gateways  types.Gateways
	Collector *metrics.Collector
	Logger    *log.Logger

	// OnStateChange is called synchronously on every transition.
	OnStateChange StateFunc

	// Now and NewAttemptID are overridable for tests.
	Now          func() time.Time
	NewAttemptID func() string
}

// Publisher runs publish flows one at a time.
type Publisher struct {
	config Config
	logger *log.Logger

	mu       sync.Mutex
	state    types.PublishState
	inFlight bool
}

// NewPublisher validates config and creates a Publisher in the idle state.
func NewPublisher(config Config) (*Publisher, error) {
	if config.Validator == nil {
		return nil, errors.New("publisher requires a validator")
	}
	if config.Direct == nil {
		return nil, errors.New("publisher requires a direct uploader")
	}
	if config.Gateways == (types.Gateways{}) {
		config.Gateways = types.DefaultGateways()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.NewAttemptID == nil {
		config.NewAttemptID = uuid.NewString
	}
	return &Publisher{
		config: config,
		logger: log.OrNop(config.Logger).Named("publish"),
		state:  types.StateIdle,
	}, nil
}

// State returns the current state.
func (p *Publisher) State() types.PublishState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Publisher) setState(s types.PublishState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	if p.config.OnStateChange != nil {
		p.config.OnStateChange(s)
	}
}

// acquire claims the single flow slot. It fails while another flow runs,
// including one that is still validating.
func (p *Publisher) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight || p.state.Busy() {
		return false
	}
	p.inFlight = true
	return true
}

func (p *Publisher) release() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

// attempt is the request-scoped state of one flow.
type attempt struct {
	id        string
	wallet    types.Wallet
	tier      types.Tier
	started   time.Time
	path      string
	currency  types.Currency
	title     string
	artist    string
	artworkID string
	rejected  bool
	logger    *log.Logger
}

// Publish validates and executes req for wallet. It never returns an error:
// every failure is reported through the result.
func (p *Publisher) Publish(ctx context.Context, wallet types.Wallet, req types.PublishRequest) *types.PublishResult {
	if !p.acquire() {
		return &types.PublishResult{Success: false, Error: MsgBusy}
	}
	defer p.release()

	at := &attempt{
		id:      p.config.NewAttemptID(),
		wallet:  wallet,
		started: p.config.Now(),
	}
	if req != nil {
		at.tier = req.Tier()
	}
	at.logger = p.logger.With(map[string]any{
		"attempt_id":  at.id,
		"wallet":      wallet.Address,
		"wallet_type": string(wallet.Type),
		"tier":        string(at.tier),
	})

	result := p.run(ctx, at, req)
	result.Tier = at.tier

	p.finish(ctx, at, result)
	return result
}

func (p *Publisher) run(ctx context.Context, at *attempt, req types.PublishRequest) *types.PublishResult {
	validated, err := p.config.Validator.Validate(ctx, at.wallet, req)
	if src, ok := p.config.Validator.(statsSource); ok {
		stats := src.Stats()
		p.config.Collector.AbsorbPolicyStats(stats.Validations, stats.Rejections, stats.ReasonCounts())
	}
	if err != nil {
		at.rejected = true
		p.setState(types.StateErrored)
		at.logger.Info("publish rejected", map[string]any{"error": err.Error()})
		return &types.PublishResult{Success: false, Error: err.Error(), Rejected: true}
	}

	switch r := validated.(type) {
	case *types.SampleRequest:
		at.title, at.artist = r.Title, r.Artist
		at.path = ledger.UploadPathDirect
		p.config.Collector.IncPublishStarted()
		return p.publishSample(ctx, at, r)

	case *types.FullRequest:
		at.title, at.artist = r.Title, r.Artist
		if p.config.Minter == nil || !p.config.Minter.Available() {
			p.setState(types.StateErrored)
			return &types.PublishResult{Success: false, Error: MsgMintUnavailable}
		}
		at.path = ledger.UploadPathDirect
		if r.PaidUpload {
			at.path = ledger.UploadPathPaid
			at.currency = r.Currency()
		}
		p.config.Collector.IncPublishStarted()
		return p.publishFull(ctx, at, r)

	default:
		p.setState(types.StateErrored)
		return &types.PublishResult{Success: false, Error: policy.MsgUnsupported}
	}
}

// failure moves to errored and builds a failed result. A non-empty
// contentID marks the upload as orphaned.
func (p *Publisher) failure(at *attempt, err error, fallback, contentID string) *types.PublishResult {
	p.setState(types.StateErrored)
	msg := errorMessage(err, fallback)
	res := &types.PublishResult{Success: false, Error: msg}
	if contentID != "" {
		res.ContentID = contentID
		res.PermawebURL = p.config.Gateways.PrimaryURL(contentID)
		res.ArioURL = p.config.Gateways.SecondaryURL(contentID)
		p.config.Collector.IncOrphanedUpload()
	}
	at.logger.Error("publish failed", map[string]any{
		"error":      msg,
		"content_id": contentID,
	})
	return res
}

// finish records metrics, the ledger entry and the completion notification.
// None of them can change the result.
func (p *Publisher) finish(ctx context.Context, at *attempt, res *types.PublishResult) {
	switch {
	case at.rejected:
		p.config.Collector.IncPublishRejected()
	case res.Success:
		p.config.Collector.IncPublishSucceeded()
	case at.tier != "":
		p.config.Collector.IncPublishFailed()
	}

	// Bookkeeping outlives a canceled caller.
	bctx := context.WithoutCancel(ctx)
	completed := p.config.Now()
	p.record(bctx, ledgerRecord(at, res, ledger.RecordKindPublish, completed))
	p.notify(bctx, completionEvent(at, res, completed))
}

func (p *Publisher) record(ctx context.Context, rec ledger.PublishRecord) {
	if p.config.Ledger == nil {
		return
	}
	if err := p.config.Ledger.Record(ctx, rec); err != nil {
		p.config.Collector.IncLedgerWriteFailure()
		p.logger.Warn("ledger write failed", map[string]any{
			"attempt_id": rec.AttemptID,
			"error":      err.Error(),
		})
		return
	}
	p.config.Collector.IncLedgerWriteSuccess()
}

func (p *Publisher) notify(ctx context.Context, ev *adapter.PublishCompletedEvent) {
	if p.config.Notifier == nil {
		return
	}
	if err := p.config.Notifier.Publish(ctx, ev); err != nil {
		p.config.Collector.IncNotifyFailure()
		p.logger.Warn("completion notification failed", map[string]any{
			"attempt_id": ev.AttemptID,
			"error":      err.Error(),
		})
	}
}

func ledgerRecord(at *attempt, res *types.PublishResult, kind string, completed time.Time) ledger.PublishRecord {
	rec := ledger.PublishRecord{
		AttemptID:   at.id,
		Kind:        kind,
		Tier:        at.tier,
		Wallet:      at.wallet.Address,
		WalletType:  at.wallet.Type,
		UploadPath:  at.path,
		Currency:    string(at.currency),
		Title:       at.title,
		Artist:      at.artist,
		ContentID:   res.ContentID,
		AssetID:     res.AssetID,
		ArtworkID:   at.artworkID,
		Success:     res.Success,
		Confirmed:   res.Confirmed,
		Error:       res.Error,
		Warning:     res.Warning,
		StartedAt:   at.started,
		CompletedAt: completed,
	}
	if pr := res.Persistence; pr != nil {
		rec.RemoteWritten = pr.Remote
		rec.RemoteSkipped = pr.RemoteSkipped
		rec.LocalWritten = pr.Local
	}
	return rec
}

func completionEvent(at *attempt, res *types.PublishResult, completed time.Time) *adapter.PublishCompletedEvent {
	outcome := adapter.OutcomeFailed
	switch {
	case res.Success:
		outcome = adapter.OutcomeSuccess
	case at.rejected:
		outcome = adapter.OutcomeRejected
	case res.Orphaned():
		outcome = adapter.OutcomeOrphaned
	}
	return &adapter.PublishCompletedEvent{
		EventType:   adapter.EventTypePublishCompleted,
		AppName:     types.AppName,
		AttemptID:   at.id,
		Tier:        string(at.tier),
		Wallet:      at.wallet.Address,
		WalletType:  string(at.wallet.Type),
		Outcome:     outcome,
		ContentID:   res.ContentID,
		AssetID:     res.AssetID,
		PermawebURL: res.PermawebURL,
		Confirmed:   res.Confirmed,
		Error:       res.Error,
		Warning:     res.Warning,
		Timestamp:   completed.UTC().Format(time.RFC3339),
		DurationMs:  completed.Sub(at.started).Milliseconds(),
	}
}
