package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPlatformCount is returned when a stop does not have exactly one
// platform. Stations with several platforms are not supported.
var ErrPlatformCount = errors.New("stop must have exactly one platform")

// ScheduledDepartures returns trip ID to scheduled departure instant for the
// stop's platform, limited to the given services and to departures at or
// after now. There is no upper bound.
//
// Store errors are logged and produce an empty map with a nil error; only the
// platform precondition is reported as an error.
func (r *Resolver) ScheduledDepartures(ctx context.Context, stop Stop, serviceIDs []string, now time.Time) (map[string]time.Time, error) {
	if len(stop.PlatformIDs) != 1 {
		return nil, fmt.Errorf("stop %s has %d platforms: %w", stop.ID, len(stop.PlatformIDs), ErrPlatformCount)
	}

	now = now.In(r.loc)
	deps := make(map[string]time.Time)

	rows, err := r.store.DeparturesAtStop(ctx, stop.PlatformIDs[0], serviceIDs, RelativeTimestamp(now))
	if err != nil {
		r.logger.Error("scheduled departures lookup failed", "stop", stop.ID, "error", err)
		return deps, nil
	}

	for _, row := range rows {
		deps[row.TripID] = AbsoluteTimestamp(now, row.DepartureTimestamp)
	}
	return deps, nil
}
