package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/donotmiss/internal/cache"
	"github.com/ppiankov/donotmiss/internal/model"
)

// CachedProvider memoizes successful extractions by provider, model and text.
// Failures are never cached so a recovered provider is retried.
type CachedProvider struct {
	inner  Provider
	cache  cache.Cache
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps inner; a nil cache returns inner unchanged
func NewCachedProvider(inner Provider, c cache.Cache, modelName string, ttl time.Duration, logger *zap.Logger) Provider {
	if inner == nil || c == nil {
		return inner
	}
	return &CachedProvider{
		inner:  inner,
		cache:  c,
		model:  modelName,
		ttl:    ttl,
		logger: orNop(logger),
	}
}

// Name returns the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (p *CachedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// ExtractTasks serves from cache when possible
func (p *CachedProvider) ExtractTasks(ctx context.Context, ec model.ExtractionContext) ([]model.RawCandidate, error) {
	key := cache.CacheKey(p.inner.Name(), p.model, ec.Text)

	if data, ok := p.cache.Get(key); ok {
		var candidates []model.RawCandidate
		if err := json.Unmarshal(data, &candidates); err == nil {
			p.logger.Debug("ai response cache hit", zap.String("provider", p.inner.Name()))
			return candidates, nil
		}
		_ = p.cache.Delete(key)
	}

	candidates, err := p.inner.ExtractTasks(ctx, ec)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(candidates); err == nil {
		if err := p.cache.Set(key, data, p.ttl); err != nil {
			p.logger.Warn("ai response cache write failed", zap.Error(err))
		}
	}

	return candidates, nil
}
