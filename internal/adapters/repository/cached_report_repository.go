package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-report-engine/internal/metrics"
)

var _ domain.ReportRepository = (*CachedReportRepository)(nil)

const defaultReportTTL = 30 * time.Minute

// CachedReportRepository keeps the latest report of each user in Redis in
// front of another repository.
type CachedReportRepository struct {
	next    domain.ReportRepository
	cache   *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCachedReportRepository(next domain.ReportRepository, cache *redis.Client, m *metrics.Metrics, logger *zap.Logger) *CachedReportRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedReportRepository{
		next:    next,
		cache:   cache,
		ttl:     defaultReportTTL,
		metrics: m,
		logger:  logger,
	}
}

func (r *CachedReportRepository) cacheKey(userID domain.ID, reportType domain.ReportType) string {
	return fmt.Sprintf("report:latest:%s:%s", userID.String(), reportType)
}

func (r *CachedReportRepository) invalidate(ctx context.Context, userID domain.ID, reportType domain.ReportType) {
	if err := r.cache.Del(ctx, r.cacheKey(userID, reportType)).Err(); err != nil {
		r.logger.Warn("cache invalidation failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (r *CachedReportRepository) Save(ctx context.Context, rec *domain.ReportRecord) error {
	if err := r.next.Save(ctx, rec); err != nil {
		return err
	}
	r.invalidate(ctx, rec.UserID, rec.Type)
	return nil
}

func (r *CachedReportRepository) GetLatest(ctx context.Context, userID domain.ID, reportType domain.ReportType) (*domain.ReportRecord, error) {
	key := r.cacheKey(userID, reportType)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var rec domain.ReportRecord
		if err := json.Unmarshal([]byte(val), &rec); err == nil {
			r.metrics.RecordCacheHit()
			return &rec, nil
		}

		r.logger.Warn("corrupted cache entry, cleaning up key", zap.String("key", key))
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("redis read error", zap.Error(err))
	}
	r.metrics.RecordCacheMiss()

	rec, err := r.next.GetLatest(ctx, userID, reportType)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rec); err == nil {
		if setErr := r.cache.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			r.logger.Warn("redis set error", zap.Error(setErr))
		}
	}

	return rec, nil
}
