package profile

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Jharmony/StreamVault/log"
	"github.com/Jharmony/StreamVault/types"
)

// DefaultCacheSize is the number of wallet to profile mappings kept.
const DefaultCacheSize = 128

// OverrideSource supplies per-wallet profile identifier overrides.
type OverrideSource interface {
	ProfileOverride(ctx context.Context, address string) (string, bool, error)
}

// Resolver maps wallets to profile identifiers.
//
// Lookup order: override, cache, store. Only found profiles are cached so a
// profile created later is picked up on the next lookup.
type Resolver struct {
	store     Store
	overrides OverrideSource
	cache     *lru.Cache[string, string]
	logger    *log.Logger
}

// NewResolver creates a resolver. store and overrides may be nil.
func NewResolver(store Store, overrides OverrideSource, cacheSize int, logger *log.Logger) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		store:     store,
		overrides: overrides,
		cache:     cache,
		logger:    log.OrNop(logger),
	}, nil
}

// Store returns the underlying profile store, which may be nil.
func (r *Resolver) Store() Store {
	return r.store
}

// ProfileID returns the wallet's profile identifier, or "" when it has none.
// ErrStoreUnavailable is returned when no store is configured and no
// override exists.
func (r *Resolver) ProfileID(ctx context.Context, address string) (string, error) {
	key := strings.ToLower(address)

	if r.overrides != nil {
		id, ok, err := r.overrides.ProfileOverride(ctx, address)
		if err != nil {
			r.logger.Warn("profile override lookup failed", map[string]any{"error": err.Error()})
		} else if ok {
			return id, nil
		}
	}

	if id, ok := r.cache.Get(key); ok {
		return id, nil
	}

	if r.store == nil {
		return "", ErrStoreUnavailable
	}

	p, err := r.store.GetByWallet(ctx, address)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	r.cache.Add(key, p.ID)
	return p.ID, nil
}

// Invalidate drops the cached mapping for a wallet.
func (r *Resolver) Invalidate(address string) {
	r.cache.Remove(strings.ToLower(address))
}

// AppendSample appends rec to the Samples[] list of profile profileID.
func (r *Resolver) AppendSample(ctx context.Context, profileID string, rec types.ProfileSampleRecord) error {
	if r.store == nil {
		return ErrStoreUnavailable
	}
	return r.store.AppendToList(ctx, SamplesPath, rec, profileID)
}
