// internal/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/metrics"
	"subsidy-recommender/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// CacheKey holds the serialized catalog.
	CacheKey = "all_subsidies_data"

	DefaultCacheTTL = 30 * time.Minute
)

// CachedStore puts a redis cache-aside in front of another Store. Redis
// failures never fail a lookup: they are logged and the backing store is
// read instead.
type CachedStore struct {
	next   Store
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(next Store, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
	}
}

func (c *CachedStore) ListSubsidies(ctx context.Context) ([]models.Subsidy, error) {
	writeBack := true

	raw, err := c.rdb.Get(ctx, CacheKey).Bytes()
	switch {
	case err == nil:
		var cached []models.Subsidy
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr != nil {
			c.logger.Warn("discarding undecodable catalog cache entry", map[string]interface{}{"error": jsonErr})
			metrics.CacheLookups.WithLabelValues("catalog", "miss").Inc()
			break
		}
		metrics.CacheLookups.WithLabelValues("catalog", "hit").Inc()
		return cached, nil
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues("catalog", "miss").Inc()
	default:
		// no write-back after a failed read
		writeBack = false
		metrics.CacheLookups.WithLabelValues("catalog", "error").Inc()
		c.logger.Warn("catalog cache read failed", map[string]interface{}{"error": err})
	}

	subsidies, err := c.next.ListSubsidies(ctx)
	if err != nil {
		return nil, err
	}

	if writeBack {
		c.store(ctx, subsidies)
	}
	return subsidies, nil
}

func (c *CachedStore) store(ctx context.Context, subsidies []models.Subsidy) {
	data, err := json.Marshal(subsidies)
	if err != nil {
		c.logger.Warn("catalog cache encode failed", map[string]interface{}{"error": err})
		return
	}
	if err := c.rdb.Set(ctx, CacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", map[string]interface{}{"error": err})
	}
}
