package health

import (
	"context"
	"math"
)

// CacheStats is implemented by the OpenAPI document cache
type CacheStats interface {
	Len() int
}

// CacheChecker reports how many parsed documents the cache holds
type CacheChecker struct {
	cache CacheStats
}

// NewCacheChecker creates a checker for the given cache
func NewCacheChecker(cache CacheStats) *CacheChecker {
	return &CacheChecker{cache: cache}
}

// Name returns "catalog-cache"
func (c *CacheChecker) Name() string { return "catalog-cache" }

// Check is healthy when a cache is configured
func (c *CacheChecker) Check(_ context.Context) *Result {
	if c.cache == nil {
		return Degraded("no document cache configured")
	}
	return Healthy("document cache available").WithDetail("entries", c.cache.Len())
}

// SimilarityFunc scores two texts in [0, 1]
type SimilarityFunc func(a, b string) float64

// ScorerChecker runs the similarity model on a fixed probe to catch regressions
type ScorerChecker struct {
	similarity SimilarityFunc
}

// NewScorerChecker creates a checker for the given similarity function
func NewScorerChecker(fn SimilarityFunc) *ScorerChecker {
	return &ScorerChecker{similarity: fn}
}

// Name returns "similarity-model"
func (c *ScorerChecker) Name() string { return "similarity-model" }

const scorerProbe = "получение списка счетов пользователя"

// Check expects an identical text to score 1 and an unrelated one to score below it
func (c *ScorerChecker) Check(ctx context.Context) *Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("check cancelled").WithDetail("error", err.Error())
	}

	identical := c.similarity(scorerProbe, scorerProbe)
	unrelated := c.similarity(scorerProbe, "weather forecast")
	if math.Abs(identical-1) > 1e-9 || unrelated >= identical {
		return Unhealthy("similarity model returned unexpected scores").
			WithDetail("identical", identical).
			WithDetail("unrelated", unrelated)
	}
	return Healthy("similarity model responding")
}
