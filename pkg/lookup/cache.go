package lookup

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a shared upstream fetch once it is detached from
// the caller that started it.
const DefaultFetchTimeout = 15 * time.Second

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// Cached memoizes successful lookups for a TTL and collapses concurrent
// identical queries into one upstream call. Failures are never cached.
type Cached struct {
	inner        Collaborator
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu        sync.Mutex
	countries *cacheEntry[[]Country]
	cities    map[string]cacheEntry[[]string]
	group     singleflight.Group
}

var _ Collaborator = (*Cached)(nil)

// NewCached wraps inner. A non-positive ttl disables expiry.
func NewCached(inner Collaborator, ttl time.Duration) *Cached {
	return &Cached{
		inner:        inner,
		ttl:          ttl,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		cities:       make(map[string]cacheEntry[[]string]),
	}
}

// WithFetchTimeout sets the bound on a shared upstream fetch. A non-positive
// value restores DefaultFetchTimeout.
func (c *Cached) WithFetchTimeout(d time.Duration) *Cached {
	if d <= 0 {
		d = DefaultFetchTimeout
	}
	c.fetchTimeout = d
	return c
}

// shared runs fetch once per key across concurrent callers. The fetch keeps
// the values of the first caller's context but not its cancellation, so one
// caller giving up does not fail the others waiting on the same key. Each
// caller still returns as soon as its own context is done.
func (c *Cached) shared(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return fetch(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (c *Cached) fresh(expires time.Time) bool {
	return c.ttl <= 0 || c.now().Before(expires)
}

func (c *Cached) ListCountries(ctx context.Context) ([]Country, error) {
	c.mu.Lock()
	if entry := c.countries; entry != nil && c.fresh(entry.expires) {
		c.mu.Unlock()
		return append([]Country(nil), entry.value...), nil
	}
	c.mu.Unlock()

	v, err := c.shared(ctx, "countries", func(ctx context.Context) (any, error) {
		countries, err := c.inner.ListCountries(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.countries = &cacheEntry[[]Country]{value: countries, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]Country(nil), v.([]Country)...), nil
}

func (c *Cached) ListCities(ctx context.Context, countryCode string) ([]string, error) {
	code := strings.ToUpper(strings.TrimSpace(countryCode))

	c.mu.Lock()
	if entry, ok := c.cities[code]; ok && c.fresh(entry.expires) {
		c.mu.Unlock()
		return append([]string(nil), entry.value...), nil
	}
	c.mu.Unlock()

	v, err := c.shared(ctx, "cities:"+code, func(ctx context.Context) (any, error) {
		cities, err := c.inner.ListCities(ctx, code)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cities[code] = cacheEntry[[]string]{value: cities, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return cities, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

// Invalidate drops every cached entry.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.countries = nil
	c.cities = make(map[string]cacheEntry[[]string])
}
