package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWallet is returned when a direct upload has no signer.
	ErrNoWallet = errors.New("wallet required to publish")
	// ErrNoPaymentWallet is returned when no wallet can pay in the selected currency.
	ErrNoPaymentWallet = errors.New("no wallet available for the selected payment currency")
	// ErrUnknownCurrency is returned for a currency outside the payment table.
	ErrUnknownCurrency = errors.New("unknown payment currency")
)

// UploadRejectedError is returned when the network answers a direct upload
// with status >= 400.
type UploadRejectedError struct {
	StatusCode int
}

func (e *UploadRejectedError) Error() string {
	return fmt.Sprintf("Upload failed: %d", e.StatusCode)
}

// ProviderError wraps a bulk-upload service failure.
type ProviderError struct {
	// StatusCode is zero for transport failures.
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("paid upload failed (%d): %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("paid upload failed (%d)", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("paid upload failed: %v", e.Err)
	default:
		return "paid upload failed"
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
