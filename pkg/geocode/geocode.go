// Package geocode resolves addresses to coordinates through a chain of
// OpenStreetMap-backed providers (Nominatim primary, Photon fallback),
// with per-provider rate limiting and an in-process result cache.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Query is one address lookup. The admin hierarchy fields narrow the
// search when present.
type Query struct {
	Address      string
	County       string
	Constituency string
	Ward         string
}

// Result holds the normalized output of a provider lookup.
type Result struct {
	Latitude    float64
	Longitude   float64
	Accuracy    string // "exact", "street", "locality", "approximate"
	Confidence  float64
	DisplayName string
	Source      string
	Matched     bool
}

// Provider is a single geocoding backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) (*Result, error)
}

// Client geocodes addresses through an ordered provider chain.
type Client interface {
	Geocode(ctx context.Context, q Query) (*Result, error)
}

// Option configures the client.
type Option func(*client)

// WithProviders sets the provider chain, tried in order.
func WithProviders(providers ...Provider) Option {
	return func(c *client) {
		c.providers = providers
	}
}

// WithRateLimit sets the shared per-provider requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		c.rps = rps
	}
}

// WithBounds restricts accepted results to a bounding region. Results
// outside the region are rejected and the next provider is tried.
func WithBounds(b *geom.Bounds) Option {
	return func(c *client) {
		c.bounds = b
	}
}

// WithCache bounds the in-process result cache.
func WithCache(ttl time.Duration, maxEntries int) Option {
	return func(c *client) {
		c.cache = newResultCache(ttl, maxEntries)
	}
}

type client struct {
	providers []Provider
	limiters  map[string]*rate.Limiter
	rps       float64
	cache     *resultCache
	bounds    *geom.Bounds
	log       *zap.Logger
}

// NewClient creates a geocoding client. Without options it has no
// providers and every lookup returns unmatched.
func NewClient(opts ...Option) Client {
	c := &client{
		rps:   1.0,
		cache: newResultCache(24*time.Hour, 10000),
		log:   zap.L().With(zap.String("component", "geocode")),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.limiters = make(map[string]*rate.Limiter, len(c.providers))
	for _, p := range c.providers {
		c.limiters[p.Name()] = rate.NewLimiter(rate.Limit(c.rps), 1)
	}
	return c
}

// Geocode tries each provider in order and returns the first result
// that lands inside the configured bounds. A lookup no provider can
// answer returns an unmatched Result, not an error; both matches and
// non-matches are cached.
func (c *client) Geocode(ctx context.Context, q Query) (*Result, error) {
	key := cacheKey(q)
	if cached, ok := c.cache.get(key); ok {
		return cached, nil
	}

	for _, p := range c.providers {
		if err := c.limiters[p.Name()].Wait(ctx); err != nil {
			return nil, err
		}
		res, err := p.Search(ctx, q)
		if err != nil {
			c.log.Warn("provider lookup failed",
				zap.String("provider", p.Name()),
				zap.Error(err))
			continue
		}
		if res == nil || !res.Matched {
			continue
		}
		if !c.inBounds(res.Latitude, res.Longitude) {
			c.log.Debug("provider result outside bounds",
				zap.String("provider", p.Name()),
				zap.Float64("lat", res.Latitude),
				zap.Float64("lon", res.Longitude))
			continue
		}
		c.cache.put(key, res)
		return res, nil
	}

	miss := &Result{Matched: false}
	c.cache.put(key, miss)
	return miss, nil
}

func (c *client) inBounds(lat, lon float64) bool {
	if c.bounds == nil {
		return true
	}
	return c.bounds.OverlapsPoint(geom.XY, geom.Coord{lon, lat})
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
