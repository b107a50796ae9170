package types

// Size ceilings and defaults for the two publish tiers.
const (
	// SampleMaxBytes is the ceiling for a sample payload (100 KiB).
	SampleMaxBytes = 100 * 1024
	// FullMaxBytes is the ceiling for a full payload on the free path (10 MiB).
	FullMaxBytes = 10 * 1024 * 1024
	// SampleDurationSeconds is the nominal length of a sample clip.
	SampleDurationSeconds = 15
	// MaxRoyaltyBasisPoints caps the royalty recorded in asset metadata.
	MaxRoyaltyBasisPoints = 5000
	// DefaultAudioContentType is assumed when a payload carries no type.
	DefaultAudioContentType = "audio/mpeg"
	// DefaultImageContentType is assumed for artwork without a type.
	DefaultImageContentType = "image/png"
	// GeneratedAudioContentType is the type of an in-memory generated beat.
	GeneratedAudioContentType = "audio/wav"
	// LocalSampleCap bounds the per-wallet local sample list.
	LocalSampleCap = 50
)

// Tier is a publish policy.
type Tier string

// Publish tiers.
const (
	TierSample Tier = "sample"
	TierFull   Tier = "full"
)

// PublishRequest is one user publish action. It is either a *SampleRequest
// or a *FullRequest.
type PublishRequest interface {
	Tier() Tier
	sealRequest() // unexported method seals the union
}

// SampleRequest publishes a short preview clip on the free direct path.
type SampleRequest struct {
	Title  string
	Artist string

	// Payload is the clip bytes. When empty and AutoSample is set, the
	// clip is fetched from StreamURL with a ranged request.
	Payload     []byte
	ContentType string

	// DurationSeconds defaults to SampleDurationSeconds when zero.
	DurationSeconds int

	StreamURL  string
	AutoSample bool
}

// Tier implements PublishRequest.
func (*SampleRequest) Tier() Tier { return TierSample }

func (*SampleRequest) sealRequest() {}

// Duration returns the effective clip duration.
func (r *SampleRequest) Duration() int {
	if r.DurationSeconds <= 0 {
		return SampleDurationSeconds
	}
	return r.DurationSeconds
}

// FullRequest publishes a full audio asset and mints a registry entry for it.
type FullRequest struct {
	Title       string
	Artist      string
	Description string

	Payload     []byte
	ContentType string
	// Generated marks a payload produced in memory (a generated beat)
	// rather than an uploaded file.
	Generated bool

	// ArtworkPayload takes precedence over ArtworkURL when both are set.
	ArtworkPayload     []byte
	ArtworkContentType string
	ArtworkURL         string

	RoyaltyBasisPoints *int

	PaidUpload         bool
	PaidUploadCurrency Currency
}

// Tier implements PublishRequest.
func (*FullRequest) Tier() Tier { return TierFull }

func (*FullRequest) sealRequest() {}

// Currency returns the payment currency, defaulting to the native one.
func (r *FullRequest) Currency() Currency {
	if r.PaidUploadCurrency == "" {
		return CurrencyArweave
	}
	return r.PaidUploadCurrency
}

// AudioContentType returns the effective audio content type.
func (r *FullRequest) AudioContentType() string {
	if r.ContentType != "" {
		return r.ContentType
	}
	if r.Generated {
		return GeneratedAudioContentType
	}
	return DefaultAudioContentType
}

// AttachRequest re-attaches an existing upload to the wallet's records.
type AttachRequest struct {
	ContentID string
	Title     string
	Artist    string
}
