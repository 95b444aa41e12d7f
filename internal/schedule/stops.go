package schedule

import (
	"context"
	"errors"
	"fmt"

	"poppy/internal/geo"
)

// ErrNoStations is returned when the store has no parent stations.
var ErrNoStations = errors.New("no stations in schedule")

// Stop is a resolved parent station and its platforms.
type Stop struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	PlatformIDs   []string `json:"platform_ids"`
	DistanceMiles float64  `json:"distance_miles"`
}

// NearestStop returns the parent station closest to coord by great-circle
// distance. When two stations are equidistant the first one returned by the
// store wins; store order is not defined, so ties are not deterministic.
func (r *Resolver) NearestStop(ctx context.Context, coord geo.Coordinate) (Stop, error) {
	stations, err := r.store.ParentStations(ctx)
	if err != nil {
		return Stop{}, fmt.Errorf("load stations: %w", err)
	}
	if len(stations) == 0 {
		return Stop{}, ErrNoStations
	}

	best := -1
	bestMiles := 0.0
	for i, s := range stations {
		miles := geo.MetersToMiles(geo.Haversine(coord.Lat, coord.Lon, s.StopLat, s.StopLon))
		if best < 0 || miles < bestMiles {
			best, bestMiles = i, miles
		}
	}

	station := stations[best]
	platforms, err := r.store.PlatformIDs(ctx, station.StopID)
	if err != nil {
		return Stop{}, fmt.Errorf("load platforms for %s: %w", station.StopID, err)
	}

	r.logger.Debug("nearest stop resolved",
		"stop", station.StopID, "miles", bestMiles, "platforms", len(platforms))

	return Stop{
		ID:            station.StopID,
		Name:          station.Name,
		PlatformIDs:   platforms,
		DistanceMiles: bestMiles,
	}, nil
}
