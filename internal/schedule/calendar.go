package schedule

import (
	"context"
	"time"
)

// ActiveServiceIDs returns the service IDs running on date, evaluated in the
// resolver's time zone. A service is active when its weekday flag is set,
// the date falls within its calendar range and no removal exception exists,
// or when an added-service exception exists for the date.
//
// Store errors are logged and produce an empty set.
func (r *Resolver) ActiveServiceIDs(ctx context.Context, date time.Time) []string {
	local := date.In(r.loc)
	ids, err := r.store.ActiveServiceIDs(ctx, local.Weekday(), dateInt(local))
	if err != nil {
		r.logger.Error("active services lookup failed", "date", dateInt(local), "error", err)
		return nil
	}
	return ids
}
