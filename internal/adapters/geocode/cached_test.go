package geocode

import (
	"context"
	"errors"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/ports"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	m       map[string]domain.Coordinates
	readErr error
	reads   atomic.Int32
}

func newMemoryCache() *memoryCache {
	return &memoryCache{m: map[string]domain.Coordinates{}}
}

func (c *memoryCache) GetMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	c.reads.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	out := map[string]domain.Coordinates{}
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *memoryCache) PutMany(_ context.Context, results map[string]domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range results {
		c.m[k] = v
	}
	return nil
}

func (c *memoryCache) get(key string) (domain.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

var delhi = domain.Coordinates{Lat: 28.7041, Lon: 77.1025}

func TestCachedGeocoderWritesBackAndServesHits(t *testing.T) {
	upstream := NewStaticGeocoder(map[string]domain.Coordinates{"New Delhi": delhi})
	cache := newMemoryCache()

	g, err := NewCachedGeocoder(upstream, cache, nil, nil)
	require.NoError(t, err)

	c, err := g.Resolve(context.Background(), "New   Delhi")
	require.NoError(t, err)
	assert.Equal(t, delhi, c)

	stored, ok := cache.get("New Delhi")
	require.True(t, ok)
	assert.Equal(t, delhi, stored)

	c, err = g.Resolve(context.Background(), " New Delhi ")
	require.NoError(t, err)
	assert.Equal(t, delhi, c)
	assert.Equal(t, int64(1), upstream.Calls())
}

func TestCachedGeocoderToleratesCacheFailure(t *testing.T) {
	upstream := NewStaticGeocoder(map[string]domain.Coordinates{"New Delhi": delhi})
	cache := newMemoryCache()
	cache.readErr = errors.New("connection refused")

	g, err := NewCachedGeocoder(upstream, cache, nil, nil)
	require.NoError(t, err)

	c, err := g.Resolve(context.Background(), "New Delhi")
	require.NoError(t, err)
	assert.Equal(t, delhi, c)
}

func TestCachedGeocoderPropagatesNotFound(t *testing.T) {
	g, err := NewCachedGeocoder(NewStaticGeocoder(nil), newMemoryCache(), nil, nil)
	require.NoError(t, err)

	_, err = g.Resolve(context.Background(), "Atlantis")
	require.ErrorIs(t, err, ports.ErrAddressNotFound)
}

type slowGeocoder struct {
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	s.calls.Add(1)
	<-s.release
	return delhi, nil
}

func TestCachedGeocoderCollapsesConcurrentMisses(t *testing.T) {
	upstream := &slowGeocoder{release: make(chan struct{})}
	cache := newMemoryCache()
	g, err := NewCachedGeocoder(upstream, cache, nil, nil)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]domain.Coordinates, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.Resolve(context.Background(), "New Delhi")
		}(i)
	}

	// Every caller has missed the cache before the lookup is released, so
	// none of them can be served by the write-back.
	require.Eventually(t, func() bool {
		return cache.reads.Load() == callers && upstream.calls.Load() == 1
	}, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(upstream.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, delhi, results[i])
	}
	assert.Equal(t, int32(1), upstream.calls.Load())
}

func TestCachedGeocoderCallerCancellation(t *testing.T) {
	upstream := &slowGeocoder{release: make(chan struct{})}
	defer close(upstream.release)

	g, err := NewCachedGeocoder(upstream, nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = g.Resolve(ctx, "New Delhi")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStaticGeocoderIgnoresCase(t *testing.T) {
	g := NewWarehouseGeocoder(domain.DefaultWarehouses())

	c, err := g.Resolve(context.Background(), "  delhi ")
	require.NoError(t, err)
	assert.Equal(t, delhi, c)
}
