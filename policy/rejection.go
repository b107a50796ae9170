package policy

import "errors"

// Reason classifies a rejected publish request.
type Reason string

// Rejection reasons.
const (
	ReasonNoWallet          Reason = "no_wallet"
	ReasonWalletMismatch    Reason = "wallet_mismatch"
	ReasonUnknownCurrency   Reason = "unknown_currency"
	ReasonNoPayload         Reason = "no_payload"
	ReasonStreamUnavailable Reason = "stream_unavailable"
	ReasonStreamNotAudio    Reason = "stream_not_audio"
	ReasonNotAudio          Reason = "not_audio"
	ReasonSampleTooLarge    Reason = "sample_too_large"
	ReasonFullTooLarge      Reason = "full_too_large"
	ReasonRoyaltyRange      Reason = "royalty_out_of_range"
	ReasonUnsupported       Reason = "unsupported_request"
)

// User-facing rejection messages.
const (
	MsgNoWallet          = "Connect an Arweave wallet to publish permanently."
	MsgWalletMismatch    = "Connect the matching wallet for the selected paid-upload currency."
	MsgUnknownCurrency   = "Unsupported paid-upload currency."
	MsgStreamUnavailable = "Unable to fetch a sample from the stream."
	MsgStreamNotAudio    = "Stream did not return audio data."
	MsgNoSample          = "Upload a short sound bite under 100KB or use auto-sample."
	MsgSampleNotAudio    = "Sample must be an audio file."
	MsgSampleTooLarge    = "Sample must be under 100KB. Try exporting a smaller MP3/OPUS."
	MsgNoFullAudio       = "Choose an audio file to publish as an atomic asset, or generate a beat and use it in publish."
	MsgFullNotAudio      = "Full asset must be an audio file."
	MsgFullTooLarge      = "Full asset must be under ~10MB unless using paid upload."
	MsgRoyaltyRange      = "Royalties must be between 0 and 5000 basis points."
	MsgUnsupported       = "Unsupported publish request."
)

// Rejection is returned by Engine.Validate when a request fails a tier rule.
// Message is suitable for direct display.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(reason Reason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
