package publish

import (
	"context"
	"errors"

	"github.com/Jharmony/StreamVault/ledger"
	"github.com/Jharmony/StreamVault/mint"
	"github.com/Jharmony/StreamVault/transfer"
	"github.com/Jharmony/StreamVault/types"
)

func (p *Publisher) publishSample(ctx context.Context, at *attempt, req *types.SampleRequest) *types.PublishResult {
	p.setState(types.StateUploading)
	at.logger.Info("sample publish started", map[string]any{
		"title":  req.Title,
		"artist": req.Artist,
		"bytes":  len(req.Payload),
	})

	tags := types.SampleTags(req.Title+" (15s sample)", req.Artist, req.Duration())
	id, err := p.uploadDirect(ctx, req.Payload, req.ContentType, tags)
	if err != nil {
		return p.failure(at, err, MsgSampleFailed, "")
	}

	res := p.uploaded(ctx, at, id)
	return p.succeed(ctx, at, res)
}

func (p *Publisher) publishFull(ctx context.Context, at *attempt, req *types.FullRequest) *types.PublishResult {
	p.setState(types.StateUploading)
	at.logger.Info("full publish started", map[string]any{
		"title":  req.Title,
		"artist": req.Artist,
		"bytes":  len(req.Payload),
		"path":   at.path,
	})

	// Artwork goes first: its URL is embedded in the mint metadata.
	artworkURL := req.ArtworkURL
	if len(req.ArtworkPayload) > 0 {
		contentType := req.ArtworkContentType
		if contentType == "" {
			contentType = types.DefaultImageContentType
		}
		artID, err := p.upload(ctx, at, req.ArtworkPayload, contentType, types.CoverArtTags(req.Title, req.Artist))
		if err != nil {
			return p.failure(at, err, MsgFullFailed, "")
		}
		at.artworkID = artID
		artworkURL = p.config.Gateways.PrimaryURL(artID)
	}

	id, err := p.upload(ctx, at, req.Payload, req.AudioContentType(), types.FullTags(req.Title, req.Artist))
	if err != nil {
		return p.failure(at, err, MsgFullFailed, "")
	}

	res := p.uploaded(ctx, at, id)

	p.setState(types.StateUploading)
	assetID, err := p.config.Minter.Mint(ctx, mint.Input{
		Title:              req.Title,
		Artist:             req.Artist,
		Description:        req.Description,
		Creator:            at.wallet.Address,
		AudioContentID:     id,
		AudioURL:           res.PermawebURL,
		ArtworkURL:         artworkURL,
		RoyaltyBasisPoints: req.RoyaltyBasisPoints,
	})
	if err != nil {
		p.config.Collector.IncMintFailure()
		failed := p.failure(at, err, MsgFullFailed, id)
		failed.Confirmed = res.Confirmed
		return failed
	}
	p.config.Collector.IncMintSuccess()
	res.AssetID = assetID

	return p.succeed(ctx, at, res)
}

// upload sends data through the attempt's path. Paid uploads carry the
// content type as a tag because the bulk service takes no separate type.
func (p *Publisher) upload(ctx context.Context, at *attempt, data []byte, contentType string, tags []types.Tag) (string, error) {
	if at.path != ledger.UploadPathPaid {
		return p.uploadDirect(ctx, data, contentType, tags)
	}
	if p.config.Paid == nil {
		p.config.Collector.IncUploadFailure()
		return "", transfer.ErrNoPaymentWallet
	}
	tags = append(tags, types.Tag{Name: types.TagContentType, Value: contentType})
	id, err := p.config.Paid.Upload(ctx, data, tags, at.currency)
	if err != nil {
		p.config.Collector.IncUploadFailure()
		return "", err
	}
	p.config.Collector.IncPaidUpload(len(data))
	return id, nil
}

func (p *Publisher) uploadDirect(ctx context.Context, data []byte, contentType string, tags []types.Tag) (string, error) {
	id, err := p.config.Direct.Upload(ctx, data, contentType, tags)
	if err != nil {
		p.config.Collector.IncUploadFailure()
		return "", err
	}
	p.config.Collector.IncDirectUpload(len(data))
	return id, nil
}

// uploaded builds the result for an accepted upload and waits for
// confirmation. An unconfirmed upload is still a successful one.
func (p *Publisher) uploaded(ctx context.Context, at *attempt, id string) *types.PublishResult {
	res := &types.PublishResult{
		Success:     true,
		ContentID:   id,
		PermawebURL: p.config.Gateways.PrimaryURL(id),
		ArioURL:     p.config.Gateways.SecondaryURL(id),
	}
	if p.config.Confirmer == nil {
		return res
	}

	p.setState(types.StateConfirming)
	confirmed := p.config.Confirmer.Await(ctx, id)
	p.config.Collector.RecordConfirmation(confirmed)
	res.Confirmed = &confirmed
	at.logger.Info("upload confirmation finished", map[string]any{
		"content_id": id,
		"confirmed":  confirmed,
	})
	return res
}

// succeed runs the post-success dual write and moves to done.
func (p *Publisher) succeed(ctx context.Context, at *attempt, res *types.PublishResult) *types.PublishResult {
	rec := types.NewProfileSampleRecord(res.ContentID, at.title, at.artist, p.config.Gateways, p.config.Now())
	report, warning := p.persist(ctx, at.wallet, rec)
	res.Persistence = &report
	res.Warning = warning

	p.setState(types.StateDone)
	at.logger.Info("publish complete", map[string]any{
		"content_id":   res.ContentID,
		"asset_id":     res.AssetID,
		"permaweb_url": res.PermawebURL,
		"warning":      res.Warning,
	})
	return res
}

// errorMessage returns the user-facing text of err.
func errorMessage(err error, fallback string) string {
	var rejected *transfer.UploadRejectedError
	switch {
	case err == nil:
		return fallback
	case errors.As(err, &rejected):
		return rejected.Error()
	case err.Error() == "":
		return fallback
	default:
		return err.Error()
	}
}
