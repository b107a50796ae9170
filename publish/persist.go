package publish

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"github.com/Jharmony/StreamVault/ledger"
	"github.com/Jharmony/StreamVault/profile"
	"github.com/Jharmony/StreamVault/types"
)

var (
	// ErrNoCache is returned by SyncLocal without a local cache.
	ErrNoCache = errors.New("local cache not configured")
	// ErrNoProfile is returned by SyncLocal when the wallet has no profile.
	ErrNoProfile = errors.New("no permaweb profile for this wallet")
)

// persist runs the two independent post-success writes. The local write
// always runs, whatever happened to the remote one. Only the remote write
// can produce a warning; a local failure is logged.
func (p *Publisher) persist(ctx context.Context, wallet types.Wallet, rec types.ProfileSampleRecord) (types.PersistenceReport, string) {
	var report types.PersistenceReport
	warning := p.appendRemote(ctx, wallet, rec, &report)

	if p.config.Cache == nil {
		p.logger.Warn("local cache not configured, record not saved on device", map[string]any{
			"content_id": rec.ContentID,
		})
	} else if err := p.config.Cache.AppendSample(ctx, wallet.Address, rec); err != nil {
		p.config.Collector.IncLocalWriteFailure()
		p.logger.Warn("failed to persist local record", map[string]any{
			"content_id": rec.ContentID,
			"error":      err.Error(),
		})
	} else {
		p.config.Collector.IncLocalWriteSuccess()
		report.Local = true
	}

	return report, warning
}

// appendRemote appends rec to the wallet's profile. Profile documents only
// exist for Arweave wallets; other wallets skip the write silently.
func (p *Publisher) appendRemote(ctx context.Context, wallet types.Wallet, rec types.ProfileSampleRecord, report *types.PersistenceReport) string {
	if wallet.Type != types.WalletArweave {
		report.RemoteSkipped = true
		return ""
	}
	if p.config.Profiles == nil {
		report.RemoteSkipped = true
		p.config.Collector.IncProfileWriteSkipped()
		return MsgProfileNotReady
	}

	profileID, err := p.config.Profiles.ProfileID(ctx, wallet.Address)
	switch {
	case errors.Is(err, profile.ErrStoreUnavailable):
		report.RemoteSkipped = true
		p.config.Collector.IncProfileWriteSkipped()
		return MsgProfileNotReady
	case err != nil:
		p.config.Collector.IncProfileWriteFailure()
		p.logger.Warn("profile lookup failed", map[string]any{
			"content_id": rec.ContentID,
			"error":      err.Error(),
		})
		return MsgSavedLocallyOnly
	case profileID == "":
		report.RemoteSkipped = true
		p.config.Collector.IncProfileWriteSkipped()
		return MsgCreateProfile
	}

	if err := p.config.Profiles.AppendSample(ctx, profileID, rec); err != nil {
		p.config.Collector.IncProfileWriteFailure()
		p.logger.Warn("profile append failed", map[string]any{
			"content_id": rec.ContentID,
			"profile_id": profileID,
			"error":      err.Error(),
		})
		return MsgSavedLocallyOnly
	}
	p.config.Collector.IncProfileWriteSuccess()
	report.Remote = true
	p.markSynced(ctx, wallet.Address, profileID, rec.ContentID)
	return ""
}

// markSynced notes ids as present in the profile. Failures only cost a
// duplicate on the next sync, so they are logged.
func (p *Publisher) markSynced(ctx context.Context, address, profileID string, ids ...string) {
	tracker, ok := p.config.Cache.(SyncTracker)
	if !ok || len(ids) == 0 {
		return
	}
	if err := tracker.MarkSynced(ctx, address, profileID, ids...); err != nil {
		p.logger.Warn("failed to record synced ids", map[string]any{
			"profile_id": profileID,
			"count":      len(ids),
			"error":      err.Error(),
		})
	}
}

// Attach records an existing upload by content identifier in both stores,
// with the same rules as a publish. It is the manual reconciliation path for
// uploads whose publish did not finish.
func (p *Publisher) Attach(ctx context.Context, wallet types.Wallet, req types.AttachRequest) *types.PublishResult {
	at := &attempt{
		id:      p.config.NewAttemptID(),
		wallet:  wallet,
		started: p.config.Now(),
		title:   strings.TrimSpace(req.Title),
		artist:  strings.TrimSpace(req.Artist),
	}
	id := strings.TrimSpace(req.ContentID)

	var res *types.PublishResult
	switch {
	case id == "":
		at.rejected = true
		res = &types.PublishResult{Success: false, Error: MsgAttachNoContentID, Rejected: true}
	case !wallet.Connected():
		at.rejected = true
		res = &types.PublishResult{Success: false, Error: MsgAttachNoWallet, Rejected: true}
	default:
		rec := types.NewProfileSampleRecord(id, at.title, at.artist, p.config.Gateways, p.config.Now())
		report, warning := p.persist(ctx, wallet, rec)
		res = &types.PublishResult{
			Success:     true,
			ContentID:   id,
			PermawebURL: p.config.Gateways.PrimaryURL(id),
			ArioURL:     p.config.Gateways.SecondaryURL(id),
			Warning:     warning,
			Persistence: &report,
		}
		p.logger.Info("upload attached", map[string]any{
			"content_id": id,
			"wallet":     wallet.Address,
			"warning":    warning,
		})
	}

	bctx := context.WithoutCancel(ctx)
	completed := p.config.Now()
	p.record(bctx, ledgerRecord(at, res, ledger.RecordKindAttach, completed))
	return res
}

// SyncReport summarizes a SyncLocal run.
type SyncReport struct {
	ProfileID string `json:"profileId"`
	Total     int    `json:"total"`
	Synced    int    `json:"synced"`
	Skipped   int    `json:"skipped"`
}

// SyncLocal replays locally cached records into the wallet's profile,
// oldest first. Records the cache already knows to be in that profile are
// skipped, so running it again appends only what is new. Individual append
// failures are combined into the error; the report counts what was written.
func (p *Publisher) SyncLocal(ctx context.Context, wallet types.Wallet) (SyncReport, error) {
	var report SyncReport
	if p.config.Cache == nil {
		return report, ErrNoCache
	}
	if p.config.Profiles == nil {
		return report, profile.ErrStoreUnavailable
	}

	profileID, err := p.config.Profiles.ProfileID(ctx, wallet.Address)
	if err != nil {
		return report, fmt.Errorf("resolve profile: %w", err)
	}
	if profileID == "" {
		return report, ErrNoProfile
	}
	report.ProfileID = profileID

	samples, err := p.config.Cache.Samples(ctx, wallet.Address)
	if err != nil {
		return report, fmt.Errorf("read local records: %w", err)
	}
	report.Total = len(samples)

	var synced map[string]bool
	if tracker, ok := p.config.Cache.(SyncTracker); ok {
		if synced, err = tracker.SyncedIDs(ctx, wallet.Address, profileID); err != nil {
			return report, fmt.Errorf("read synced ids: %w", err)
		}
	}

	var (
		errs    error
		written []string
	)
	for _, rec := range slices.Backward(samples) {
		if synced[rec.ContentID] {
			report.Skipped++
			continue
		}
		if err := p.config.Profiles.AppendSample(ctx, profileID, rec); err != nil {
			p.config.Collector.IncProfileWriteFailure()
			errs = multierr.Append(errs, fmt.Errorf("sync %s: %w", rec.ContentID, err))
			continue
		}
		p.config.Collector.IncProfileWriteSuccess()
		report.Synced++
		written = append(written, rec.ContentID)
	}
	p.markSynced(context.WithoutCancel(ctx), wallet.Address, profileID, written...)

	p.logger.Info("local records synced", map[string]any{
		"profile_id": profileID,
		"total":      report.Total,
		"synced":     report.Synced,
		"skipped":    report.Skipped,
	})
	return report, errs
}
