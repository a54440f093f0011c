package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
	appErrors "github.com/azizur-rahaman/skillflow-sub002/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService wraps a cache repository with metrics and fail-open semantics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads a cached entry into dest and reports whether it was a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// CachedSkillSource serves mintable skills from cache before asking the wrapped source.
// Cache failures fall through to the source.
type CachedSkillSource struct {
	source SkillSource
	cache  *CacheService
	ttl    time.Duration
}

// NewCachedSkillSource wraps source with cache.
func NewCachedSkillSource(source SkillSource, cache *CacheService, ttl time.Duration) *CachedSkillSource {
	return &CachedSkillSource{source: source, cache: cache, ttl: ttl}
}

// ListMintableSkills implements SkillSource.
func (c *CachedSkillSource) ListMintableSkills(ctx context.Context, ownerID string) ([]models.MintableSkill, error) {
	key := SkillCacheKey(ownerID)
	var cached []models.MintableSkill
	if hit, _ := c.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	skills, err := c.source.ListMintableSkills(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, skills, c.ttl)
	return skills, nil
}

// InvalidateOwner drops the cached catalog of an owner.
func (c *CachedSkillSource) InvalidateOwner(ctx context.Context, ownerID string) error {
	return c.cache.Invalidate(ctx, SkillCacheKey(ownerID))
}

// SkillCacheKey is the cache key of an owner's mintable skill list.
func SkillCacheKey(ownerID string) string {
	return fmt.Sprintf("minting:skills:%s", ownerID)
}
