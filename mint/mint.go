// Package mint creates registry entries for published full-tier audio.
package mint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jharmony/StreamVault/log"
	"github.com/Jharmony/StreamVault/types"
)

// Asset registry constants.
const (
	// ReferenceContentType is the content type of the asset body, which is
	// the audio URL rather than the audio itself.
	ReferenceContentType = "text/plain"
	// AssetTypeAudio is the registry asset type.
	AssetTypeAudio = "audio"
)

// Topics are attached to every minted asset.
var Topics = []string{"Music", types.AppName, "Atomic-Asset"}

// ErrRegistryUnavailable is returned when no registry is configured.
var ErrRegistryUnavailable = errors.New("asset registry not available")

// Metadata is the registry-side description of the audio.
type Metadata struct {
	AudioTxID    string `json:"audioTxId"`
	Artist       string `json:"artist"`
	Artwork      string `json:"artwork,omitempty"`
	RoyaltiesBps *int   `json:"royaltiesBps,omitempty"`
}

// AssetSpec is the registry create request.
type AssetSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	Creator     string   `json:"creator"`
	Data        string   `json:"data"`
	ContentType string   `json:"contentType"`
	AssetType   string   `json:"assetType"`
	Metadata    Metadata `json:"metadata"`
}

// Registry creates asset entries.
type Registry interface {
	CreateAsset(ctx context.Context, spec AssetSpec) (string, error)
}

// Input describes the uploaded audio to mint.
type Input struct {
	Title              string
	Artist             string
	Description        string
	Creator            string
	AudioContentID     string
	AudioURL           string
	ArtworkURL         string
	RoyaltyBasisPoints *int
}

// MintError wraps a registry failure. Its message is the registry's.
type MintError struct {
	Err error
}

func (e *MintError) Error() string { return e.Err.Error() }

func (e *MintError) Unwrap() error { return e.Err }

// Minter builds asset specs and submits them to a Registry.
type Minter struct {
	registry Registry
	logger   *log.Logger
}

// NewMinter creates a minter. A nil registry is allowed; Mint then returns
// ErrRegistryUnavailable.
func NewMinter(registry Registry, logger *log.Logger) *Minter {
	return &Minter{registry: registry, logger: log.OrNop(logger)}
}

// Available reports whether a registry is configured.
func (m *Minter) Available() bool {
	return m != nil && m.registry != nil
}

// BuildSpec returns the registry request for in.
func BuildSpec(in Input) AssetSpec {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = fmt.Sprintf("Permanent release by %s", in.Artist)
	}
	return AssetSpec{
		Name:        in.Title,
		Description: desc,
		Topics:      append([]string(nil), Topics...),
		Creator:     in.Creator,
		Data:        in.AudioURL,
		ContentType: ReferenceContentType,
		AssetType:   AssetTypeAudio,
		Metadata: Metadata{
			AudioTxID:    in.AudioContentID,
			Artist:       in.Artist,
			Artwork:      in.ArtworkURL,
			RoyaltiesBps: in.RoyaltyBasisPoints,
		},
	}
}

// Mint creates the registry entry and returns its asset identifier.
func (m *Minter) Mint(ctx context.Context, in Input) (string, error) {
	if !m.Available() {
		return "", ErrRegistryUnavailable
	}

	spec := BuildSpec(in)
	id, err := m.registry.CreateAsset(ctx, spec)
	if err != nil {
		m.logger.Error("asset mint failed", map[string]any{
			"content_id": in.AudioContentID,
			"error":      err.Error(),
		})
		return "", &MintError{Err: err}
	}

	m.logger.Info("asset minted", map[string]any{
		"asset_id":   id,
		"content_id": in.AudioContentID,
		"topics":     strings.Join(spec.Topics, ","),
	})
	return id, nil
}
