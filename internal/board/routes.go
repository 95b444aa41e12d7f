package board

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"poppy/internal/cache"
)

// RouteLookup resolves the raw route name of a trip.
type RouteLookup interface {
	RouteNameForTrip(ctx context.Context, tripID string) (string, error)
}

// CachedLookup memoizes a RouteLookup. Only successful lookups are cached.
type CachedLookup struct {
	next  RouteLookup
	cache *cache.Cache[string, string]
}

// NewCachedLookup wraps next with a TTL cache.
func NewCachedLookup(next RouteLookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:  next,
		cache: cache.New[string, string](ttl, 5*time.Minute),
	}
}

func (c *CachedLookup) RouteNameForTrip(ctx context.Context, tripID string) (string, error) {
	if name, ok := c.cache.Get(tripID); ok {
		return name, nil
	}
	name, err := c.next.RouteNameForTrip(ctx, tripID)
	if err != nil {
		return "", err
	}
	c.cache.Set(tripID, name)
	return name, nil
}

// Close stops the cache's background sweep.
func (c *CachedLookup) Close() {
	c.cache.Close()
}

// DisplayName shortens an "Origin to Destination" route name to the text
// after the first "to ". Other names are returned unchanged.
func DisplayName(raw string) string {
	if _, after, found := strings.Cut(raw, "to "); found {
		return after
	}
	return raw
}

// RouteDepartures groups departures by route display name. Trips whose route
// cannot be resolved are skipped.
func RouteDepartures(ctx context.Context, lookup RouteLookup, merged map[string]time.Time, logger *slog.Logger) map[string][]time.Time {
	routes := make(map[string][]time.Time)
	for tripID, dep := range merged {
		raw, err := lookup.RouteNameForTrip(ctx, tripID)
		if err != nil {
			logger.Debug("skipping trip without route", "trip", tripID, "error", err)
			continue
		}
		name := DisplayName(raw)
		routes[name] = append(routes[name], dep)
	}
	return routes
}
