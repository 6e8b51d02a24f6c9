package llm

import (
	"context"
	"time"

	"github.com/factgraph/factgraph/internal/cache"
)

// CachingProvider wraps a Provider with a byte cache keyed by prompt.
// Repeated audits of the same output replay identical completions,
// which keeps reports reproducible and avoids paying twice for the
// same request.
type CachingProvider struct {
	inner Provider
	store cache.Cache
	model string
	ttl   time.Duration
}

// NewCachingProvider wraps inner with the given cache store.
func NewCachingProvider(inner Provider, store cache.Cache, model string, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		store: store,
		model: model,
		ttl:   ttl,
	}
}

// Name returns the wrapped provider's name
func (p *CachingProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable defers to the wrapped provider
func (p *CachingProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Complete returns the cached response when present, otherwise calls
// through and stores the result. Cache write failures are ignored: a
// completed request beats a failed run.
func (p *CachingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	key := cache.Key(p.inner.Name() + ":" + p.model + ":" + prompt)

	if data, found := p.store.Get(key); found {
		return string(data), nil
	}

	response, err := p.inner.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	_ = p.store.Set(key, []byte(response), p.ttl)

	return response, nil
}
