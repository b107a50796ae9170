package transfer

import (
	"context"
	"fmt"

	"github.com/Jharmony/StreamVault/log"
	"github.com/Jharmony/StreamVault/types"
)

// DirectUploader publishes payloads as wallet-signed transactions.
type DirectUploader struct {
	signer  Signer
	network Network
	logger  *log.Logger
}

// NewDirectUploader creates a direct uploader. A nil signer is allowed; every
// upload then fails with ErrNoWallet.
func NewDirectUploader(signer Signer, network Network, logger *log.Logger) *DirectUploader {
	return &DirectUploader{
		signer:  signer,
		network: network,
		logger:  log.OrNop(logger),
	}
}

// Upload signs and submits data and returns its content identifier.
//
// The identifier is taken from the signed transaction when the signer
// returns one with an ID, otherwise from the pre-signature transaction.
func (u *DirectUploader) Upload(ctx context.Context, data []byte, contentType string, tags []types.Tag) (string, error) {
	if u.signer == nil {
		return "", ErrNoWallet
	}

	tx, err := NewTransaction(u.signer.Address(), data, withStandardTags(tags, contentType))
	if err != nil {
		return "", err
	}

	signed, err := u.signer.Sign(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	submit := tx
	if signed != nil {
		submit = signed
	}

	status, err := u.network.Submit(ctx, submit)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		u.logger.Warn("direct upload rejected", map[string]any{
			"status": status,
			"bytes":  len(data),
		})
		return "", &UploadRejectedError{StatusCode: status}
	}

	id := tx.ID
	if signed != nil && signed.ID != "" {
		id = signed.ID
	}

	u.logger.Info("direct upload accepted", map[string]any{
		"content_id": id,
		"status":     status,
		"bytes":      len(data),
	})
	return id, nil
}
