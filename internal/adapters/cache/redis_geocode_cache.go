package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "geocode:"

// RedisGeocodeCache stores address -> coordinate mappings as JSON values
// under "geocode:<address>", each with the configured TTL.
type RedisGeocodeCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGeocodeCache uses rdb for storage. A non-positive ttl keeps
// entries forever.
func NewRedisGeocodeCache(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisGeocodeCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisGeocodeCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Fetch cached coordinates for the given addresses.
// Undecodable entries are treated as misses.
func (r *RedisGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, r.logger, "geocode.redis.GetMany")(&err)

	if r.rdb == nil {
		return nil, errors.New("geocode cache: redis client is nil")
	}

	uniq := uniqueKeys(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, len(uniq))
	for i, a := range uniq {
		keys[i] = redisKeyPrefix + a
	}

	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: redis mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var c domain.Coordinates
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			continue
		}
		out[uniq[i]] = c
	}

	return out, nil
}

// Store address -> coordinate mappings in the cache.
func (r *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, r.logger, "geocode.redis.PutMany")(&err)

	if r.rdb == nil {
		return errors.New("geocode cache: redis client is nil")
	}

	if len(results) == 0 {
		return nil
	}

	pipe := r.rdb.TxPipeline()
	for addr, c := range results {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("insert geocode cache coord=%q: %w", addr, err)
		}
		pipe.Set(ctx, redisKeyPrefix+addr, b, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: redis exec: %w", err)
	}

	return nil
}
