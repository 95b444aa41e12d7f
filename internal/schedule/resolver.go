// Package schedule resolves the static GTFS schedule: service days, active
// service calendars, the nearest station and its scheduled departures.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"poppy/internal/storage"
)

// Store is the read-only schedule data the resolver needs.
// *storage.DB satisfies it.
type Store interface {
	ParentStations(ctx context.Context) ([]storage.StationRow, error)
	PlatformIDs(ctx context.Context, stationID string) ([]string, error)
	ActiveServiceIDs(ctx context.Context, weekday time.Weekday, date int) ([]string, error)
	DeparturesAtStop(ctx context.Context, stopID string, serviceIDs []string, from int64) ([]storage.DepartureRow, error)
}

// Resolver answers schedule questions in a fixed time zone.
type Resolver struct {
	store  Store
	loc    *time.Location
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil loc means time.Local.
func NewResolver(store Store, loc *time.Location, logger *slog.Logger) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{store: store, loc: loc, logger: logger}
}

// Location returns the resolver's time zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}
