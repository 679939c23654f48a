// Package idempotency replays the stored response of a request that was
// already executed with the same Idempotency-Key for the same merchant.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/repository"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"go.uber.org/zap"
)

// Operation produces the serialized response to store
type Operation func(ctx context.Context) ([]byte, error)

// Cache is an optional read-through layer in front of the store
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Guard executes operations at most once per (merchant, key) within the TTL
type Guard struct {
	repo  repository.IdempotencyRepository
	cache Cache
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger
}

// Option configures a Guard
type Option func(*Guard)

// WithCache puts cache in front of the store
func WithCache(cache Cache) Option {
	return func(g *Guard) { g.cache = cache }
}

// WithTTL overrides the record lifetime
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) { g.ttl = ttl }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a guard over repo
func NewGuard(repo repository.IdempotencyRepository, log *logger.Logger, opts ...Option) *Guard {
	g := &Guard{
		repo: repo,
		ttl:  domain.IdempotencyTTL,
		now:  func() time.Time { return time.Now().UTC() },
		log:  log,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Get()
	}
	return g
}

// Execute runs op unless a live record exists for (merchantID, key), in which
// case the stored response is returned verbatim. An empty key always runs op.
// Failed operations are never recorded.
func (g *Guard) Execute(ctx context.Context, merchantID, key string, op Operation) ([]byte, error) {
	if key == "" {
		return op(ctx)
	}

	if resp, ok := g.lookupCache(ctx, merchantID, key); ok {
		return resp, nil
	}

	rec, err := g.repo.Get(ctx, key, merchantID, g.now())
	switch {
	case err == nil:
		g.fillCache(ctx, rec)
		return rec.Response, nil
	case !errors.Is(err, domain.ErrIdempotencyRecordNotFound):
		return nil, fmt.Errorf("failed to read idempotency record: %w", err)
	}

	resp, err := op(ctx)
	if err != nil {
		return nil, err
	}

	now := g.now()
	rec = &domain.IdempotencyRecord{
		Key:        key,
		MerchantID: merchantID,
		Response:   resp,
		CreatedAt:  now,
		ExpiresAt:  now.Add(g.ttl),
	}

	stored, err := g.repo.Insert(ctx, rec)
	if err != nil {
		// The operation already took effect, so its response is still returned.
		g.log.Error("Failed to store idempotency record",
			zap.String("merchant_id", merchantID),
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return resp, nil
	}

	if !stored {
		// A concurrent request with the same key stored first.
		winner, err := g.repo.Get(ctx, key, merchantID, now)
		if err == nil {
			g.fillCache(ctx, winner)
			return winner.Response, nil
		}
		return resp, nil
	}

	g.fillCache(ctx, rec)
	return resp, nil
}

func cacheKey(merchantID, key string) string {
	return "idempotency:" + merchantID + ":" + key
}

func (g *Guard) lookupCache(ctx context.Context, merchantID, key string) ([]byte, bool) {
	if g.cache == nil {
		return nil, false
	}

	resp, ok, err := g.cache.Get(ctx, cacheKey(merchantID, key))
	if err != nil {
		g.log.Warn("Idempotency cache read failed", zap.Error(err))
		return nil, false
	}
	return resp, ok
}

func (g *Guard) fillCache(ctx context.Context, rec *domain.IdempotencyRecord) {
	if g.cache == nil {
		return
	}

	ttl := rec.ExpiresAt.Sub(g.now())
	if ttl <= 0 {
		return
	}
	if err := g.cache.Set(ctx, cacheKey(rec.MerchantID, rec.Key), rec.Response, ttl); err != nil {
		g.log.Warn("Idempotency cache write failed", zap.Error(err))
	}
}
