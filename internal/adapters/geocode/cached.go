package geocode

import (
	"context"
	"errors"
	"fmt"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/platform/obs"
	"shipping-estimate-service/internal/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedGeocoder puts a persistent GeocodeCache in front of another
// Geocoder. Concurrent misses for the same normalized address share a
// single upstream call. Cache failures are logged and otherwise ignored.
type CachedGeocoder struct {
	next    ports.Geocoder
	cache   ports.GeocodeCache
	group   singleflight.Group
	logger  *zap.Logger
	metrics *obs.Metrics
}

// NewCachedGeocoder wraps next. A nil cache still deduplicates
// concurrent lookups but stores nothing.
func NewCachedGeocoder(
	next ports.Geocoder,
	cache ports.GeocodeCache,
	logger *zap.Logger,
	metrics *obs.Metrics,
) (*CachedGeocoder, error) {
	if next == nil {
		return nil, errors.New("cached geocoder: upstream geocoder is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedGeocoder{
		next:    next,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (g *CachedGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	key := Normalize(address)
	if key == "" {
		return domain.Coordinates{}, errors.New("cached geocoder: address must be non-empty")
	}

	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, []string{key})
		if err != nil {
			g.logger.Warn("geocode cache read failed", zap.String("address", key), zap.Error(err))
		} else if c, ok := hits[key]; ok {
			g.metrics.ObserveCacheLookup("hit", 1)
			return c, nil
		}
		g.metrics.ObserveCacheLookup("miss", 1)
	}

	// The shared call must not be cancelled by whichever caller arrived
	// first; each caller still gives up on its own context below.
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		c, err := g.next.Resolve(shared, key)
		if err != nil {
			return nil, err
		}
		g.store(shared, key, c)
		return c, nil
	})

	select {
	case <-ctx.Done():
		return domain.Coordinates{}, fmt.Errorf("cached geocoder %q: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Coordinates{}, res.Err
		}
		return res.Val.(domain.Coordinates), nil
	}
}

func (g *CachedGeocoder) store(ctx context.Context, key string, c domain.Coordinates) {
	if g.cache == nil {
		return
	}
	if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{key: c}); err != nil {
		g.logger.Warn("geocode cache write failed", zap.String("address", key), zap.Error(err))
	}
}
