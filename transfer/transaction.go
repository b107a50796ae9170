// Package transfer moves payloads onto permanent storage.
//
// Two paths exist:
//   - DirectUploader: a wallet-signed transaction posted to the network (free tier)
//   - PaidUploader: a single call to a bulk-upload service paid in a chosen currency
//
// Both return the content identifier the payload is addressable by. Signing
// is delegated to a Signer; this package never handles key material.
package transfer

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Jharmony/StreamVault/types"
)

// TransactionFormat is the wire format version written by this package.
const TransactionFormat = 2

// MaxTransactionSize bounds a decoded transaction. Direct uploads never
// exceed the full-tier ceiling; the margin covers tags and signature.
const MaxTransactionSize = types.FullMaxBytes + 64*1024

// ErrTransactionTooLarge is returned when decoding an oversized payload.
var ErrTransactionTooLarge = errors.New("transaction exceeds maximum size")

// Transaction is a data transaction bound for the network.
type Transaction struct {
	Format    int         `msgpack:"format"`
	ID        string      `msgpack:"id,omitempty"`
	Anchor    string      `msgpack:"anchor"`
	Owner     string      `msgpack:"owner"`
	Tags      []types.Tag `msgpack:"tags"`
	Data      []byte      `msgpack:"data"`
	Signature string      `msgpack:"signature,omitempty"`
}

// unsignedFields is the digest preimage: every field except ID and Signature.
type unsignedFields struct {
	Format int         `msgpack:"format"`
	Anchor string      `msgpack:"anchor"`
	Owner  string      `msgpack:"owner"`
	Tags   []types.Tag `msgpack:"tags"`
	Data   []byte      `msgpack:"data"`
}

// NewTransaction builds an unsigned transaction with a fresh anchor and its
// provisional identifier. Two transactions over identical payloads never share
// an identifier.
func NewTransaction(owner string, data []byte, tags []types.Tag) (*Transaction, error) {
	tx := &Transaction{
		Format: TransactionFormat,
		Anchor: uuid.NewString(),
		Owner:  owner,
		Tags:   tags,
		Data:   data,
	}
	id, err := tx.Digest()
	if err != nil {
		return nil, err
	}
	tx.ID = id
	return tx, nil
}

// Digest returns base64url(sha256(msgpack(unsigned fields))).
func (tx *Transaction) Digest() (string, error) {
	b, err := msgpack.Marshal(unsignedFields{
		Format: tx.Format,
		Anchor: tx.Anchor,
		Owner:  tx.Owner,
		Tags:   tx.Tags,
		Data:   tx.Data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction digest: %w", err)
	}
	sum := sha256.Sum256(b)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// Encode serializes tx for the wire.
func Encode(tx *Transaction) ([]byte, error) {
	b, err := msgpack.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return b, nil
}

// Decode parses a wire transaction.
func Decode(b []byte) (*Transaction, error) {
	if len(b) > MaxTransactionSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTransactionTooLarge, len(b))
	}
	var tx Transaction
	if err := msgpack.Unmarshal(b, &tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return &tx, nil
}

// withStandardTags returns tags with App-Name first (added when missing) and
// a Content-Type tag appended when missing and contentType is set.
func withStandardTags(tags []types.Tag, contentType string) []types.Tag {
	out := make([]types.Tag, 0, len(tags)+2)
	if !types.HasTag(tags, types.TagAppName) {
		out = append(out, types.Tag{Name: types.TagAppName, Value: types.AppName})
	}
	out = append(out, tags...)
	if contentType != "" && !types.HasTag(tags, types.TagContentType) {
		out = append(out, types.Tag{Name: types.TagContentType, Value: contentType})
	}
	return out
}
