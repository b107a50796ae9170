// Package policy decides whether a publish request is admissible for its tier.
//
// Rules:
//   - A sample is an audio clip of at most 100 KiB on the free direct path
//   - A full asset is audio of at most ~10 MiB unless paid upload is selected
//   - The upload path must match the connected wallet (direct needs arweave,
//     paid needs the currency's wallet type)
//   - Validation never uploads anything
//
// The Engine may perform one side-effect-free read: the ranged fetch of a
// stream prefix when a sample is auto-sampled.
package policy

import (
	"context"
	"errors"
	"sync"

	"github.com/Jharmony/StreamVault/log"
	"github.com/Jharmony/StreamVault/types"
)

// Stats represents validation observability metrics.
type Stats struct {
	// Validations is the total number of requests validated.
	Validations int64
	// Accepted is the number of requests that passed.
	Accepted int64
	// Rejections is the total number of rejected requests.
	Rejections int64
	// RejectionsByReason maps reasons to rejection counts.
	RejectionsByReason map[Reason]int64
	// AutoSamples is the number of stream prefixes fetched.
	AutoSamples int64
	// UncheckedGenerated counts generated full payloads accepted without a
	// content type check.
	UncheckedGenerated int64
}

// ReasonCounts returns RejectionsByReason keyed by plain strings.
func (s Stats) ReasonCounts() map[string]int64 {
	out := make(map[string]int64, len(s.RejectionsByReason))
	for k, v := range s.RejectionsByReason {
		out[string(k)] = v
	}
	return out
}

// statsRecorder is an internal helper for thread-safe stats management.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		stats: Stats{
			RejectionsByReason: make(map[Reason]int64),
		},
	}
}

func (r *statsRecorder) incValidations() {
	r.mu.Lock()
	r.stats.Validations++
	r.mu.Unlock()
}

func (r *statsRecorder) incAccepted() {
	r.mu.Lock()
	r.stats.Accepted++
	r.mu.Unlock()
}

func (r *statsRecorder) incRejected(reason Reason) {
	r.mu.Lock()
	r.stats.Rejections++
	r.stats.RejectionsByReason[reason]++
	r.mu.Unlock()
}

func (r *statsRecorder) incAutoSamples() {
	r.mu.Lock()
	r.stats.AutoSamples++
	r.mu.Unlock()
}

func (r *statsRecorder) incUncheckedGenerated() {
	r.mu.Lock()
	r.stats.UncheckedGenerated++
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.stats
	s.RejectionsByReason = make(map[Reason]int64, len(r.stats.RejectionsByReason))
	for k, v := range r.stats.RejectionsByReason {
		s.RejectionsByReason[k] = v
	}
	return s
}

// Engine validates publish requests.
type Engine struct {
	fetcher StreamFetcher
	logger  *log.Logger
	stats   *statsRecorder
}

// NewEngine creates an engine. A nil fetcher disables auto-sampling; a nil
// logger discards validation diagnostics.
func NewEngine(fetcher StreamFetcher, logger *log.Logger) *Engine {
	return &Engine{
		fetcher: fetcher,
		logger:  log.OrNop(logger),
		stats:   newStatsRecorder(),
	}
}

// Stats returns a snapshot of validation counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// Validate checks req against the tier rules for wallet. On success it returns
// the request to execute, which for an auto-sampled sample is a copy carrying
// the fetched clip. Any failure is a *Rejection.
func (e *Engine) Validate(ctx context.Context, wallet types.Wallet, req types.PublishRequest) (types.PublishRequest, error) {
	e.stats.incValidations()

	var (
		out types.PublishRequest
		rej *Rejection
	)
	switch r := req.(type) {
	case *types.SampleRequest:
		out, rej = e.validateSample(ctx, wallet, r)
	case *types.FullRequest:
		out, rej = e.validateFull(wallet, r)
	default:
		rej = reject(ReasonUnsupported, MsgUnsupported)
	}

	if rej != nil {
		e.stats.incRejected(rej.Reason)
		e.logger.Debug("publish request rejected", map[string]any{
			"reason": string(rej.Reason),
		})
		return nil, rej
	}
	e.stats.incAccepted()
	return out, nil
}

func (e *Engine) validateSample(ctx context.Context, wallet types.Wallet, req *types.SampleRequest) (types.PublishRequest, *Rejection) {
	if rej := checkDirectWallet(wallet); rej != nil {
		return nil, rej
	}

	out := *req
	if len(out.Payload) == 0 && out.AutoSample && out.StreamURL != "" && e.fetcher != nil {
		clip, err := e.fetcher.FetchPrefix(ctx, out.StreamURL, types.SampleMaxBytes)
		if err != nil {
			if errors.Is(err, ErrStreamNotAudio) {
				return nil, reject(ReasonStreamNotAudio, MsgStreamNotAudio)
			}
			e.logger.Warn("stream prefix fetch failed", map[string]any{
				"stream_url": out.StreamURL,
				"error":      err.Error(),
			})
			return nil, reject(ReasonStreamUnavailable, MsgStreamUnavailable)
		}
		e.stats.incAutoSamples()
		out.Payload = clip.Data
		out.ContentType = clip.ContentType
	}

	if len(out.Payload) == 0 {
		return nil, reject(ReasonNoPayload, MsgNoSample)
	}
	if out.ContentType == "" {
		out.ContentType = types.DefaultAudioContentType
	}
	if !isAudio(out.ContentType) {
		return nil, reject(ReasonNotAudio, MsgSampleNotAudio)
	}
	if len(out.Payload) > types.SampleMaxBytes {
		return nil, reject(ReasonSampleTooLarge, MsgSampleTooLarge)
	}
	return &out, nil
}

func (e *Engine) validateFull(wallet types.Wallet, req *types.FullRequest) (types.PublishRequest, *Rejection) {
	if req.PaidUpload {
		if rej := checkPaidWallet(wallet, req.Currency()); rej != nil {
			return nil, rej
		}
	} else if rej := checkDirectWallet(wallet); rej != nil {
		return nil, rej
	}

	if len(req.Payload) == 0 {
		return nil, reject(ReasonNoPayload, MsgNoFullAudio)
	}

	if req.Generated {
		// Generated beats are produced in memory and carry whatever type the
		// generator assigned.
		e.stats.incUncheckedGenerated()
		e.logger.Debug("generated payload accepted without content type check", map[string]any{
			"content_type": req.AudioContentType(),
			"bytes":        len(req.Payload),
		})
	} else if !isAudio(req.AudioContentType()) {
		return nil, reject(ReasonNotAudio, MsgFullNotAudio)
	}

	if bps := req.RoyaltyBasisPoints; bps != nil && (*bps < 0 || *bps > types.MaxRoyaltyBasisPoints) {
		return nil, reject(ReasonRoyaltyRange, MsgRoyaltyRange)
	}

	if !req.PaidUpload && len(req.Payload) > types.FullMaxBytes {
		return nil, reject(ReasonFullTooLarge, MsgFullTooLarge)
	}

	out := *req
	return &out, nil
}

func checkDirectWallet(wallet types.Wallet) *Rejection {
	if wallet.Type != types.DirectUploadWallet || wallet.Address == "" {
		return reject(ReasonNoWallet, MsgNoWallet)
	}
	return nil
}

func checkPaidWallet(wallet types.Wallet, currency types.Currency) *Rejection {
	need, ok := types.RequiredWallet(currency)
	if !ok {
		return reject(ReasonUnknownCurrency, MsgUnknownCurrency)
	}
	if !wallet.Connected() || wallet.Type != need {
		return reject(ReasonWalletMismatch, MsgWalletMismatch)
	}
	return nil
}
