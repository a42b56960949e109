package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// versionTTL outlives any cached listing so an expired version never aliases live keys.
const versionTTL = 7 * 24 * time.Hour

// CacheService wraps a cache repository with metrics and fail-open behaviour.
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

// Key joins parts into a namespaced cache key.
func Key(namespace string, parts ...string) string {
	return namespace + ":" + strings.Join(parts, ":")
}

// Get attempts to load key into dest and reports whether the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores value under key. ttl <= 0 uses the default TTL.
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

// Invalidate removes cached values matching pattern.
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

// Version returns the current generation token of namespace. Keys built with it
// are never read again once the namespace is invalidated, so a writer racing an
// invalidation cannot resurrect stale data. An empty string means caching should
// be skipped.
func (s *CacheService) Version(ctx context.Context, namespace string) string {
	if !s.Enabled() {
		return ""
	}
	var version string
	if err := s.repo.Get(ctx, versionKey(namespace), &version); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return "0"
		}
		s.logger.Warn("cache version lookup failed", zap.String("namespace", namespace), zap.Error(err))
		return ""
	}
	return version
}

// InvalidateNamespace rotates the namespace version and then drops its keys.
func (s *CacheService) InvalidateNamespace(ctx context.Context, namespace string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Set(ctx, versionKey(namespace), uuid.NewString(), versionTTL); err != nil {
		s.logger.Warn("cache version rotate failed", zap.String("namespace", namespace), zap.Error(err))
	}
	return s.Invalidate(ctx, namespace+":*")
}

func versionKey(namespace string) string {
	return "version:" + namespace
}
