package realtime

import (
	"maps"
	"slices"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// ApplyRealtime overlays trip updates for the given platforms onto the
// scheduled departures and returns a new map; scheduled is not modified.
//
// For each stop time update at one of the platforms, the predicted departure
// (or arrival, when no departure is given) replaces the scheduled time.
// Cancelled trips, skipped stops and predictions already in the past remove
// the trip. Trips the feed does not mention keep their scheduled time, and a
// nil feed returns an unchanged copy.
func ApplyRealtime(platformIDs []string, feed *gtfs.FeedMessage, scheduled map[string]time.Time, now time.Time) map[string]time.Time {
	merged := maps.Clone(scheduled)
	if merged == nil {
		merged = make(map[string]time.Time)
	}
	if feed == nil {
		return merged
	}

	for _, entity := range feed.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		tripID := tu.GetTrip().GetTripId()
		if tripID == "" {
			continue
		}
		cancelled := tu.GetTrip().GetScheduleRelationship() == gtfs.TripDescriptor_CANCELED

		for _, stu := range tu.GetStopTimeUpdate() {
			if !slices.Contains(platformIDs, stu.GetStopId()) {
				continue
			}
			skipped := stu.GetScheduleRelationship() == gtfs.TripUpdate_StopTimeUpdate_SKIPPED

			predicted, ok := predictedTime(stu)
			switch {
			case cancelled || skipped:
				delete(merged, tripID)
			case !ok:
				// No prediction; the scheduled time stands.
			case predicted.Before(now):
				delete(merged, tripID)
			default:
				merged[tripID] = predicted
			}
		}
	}
	return merged
}

// predictedTime returns the departure time of a stop time update, falling
// back to the arrival time.
func predictedTime(stu *gtfs.TripUpdate_StopTimeUpdate) (time.Time, bool) {
	if dep := stu.GetDeparture(); dep != nil && dep.Time != nil {
		return time.Unix(dep.GetTime(), 0), true
	}
	if arr := stu.GetArrival(); arr != nil && arr.Time != nil {
		return time.Unix(arr.GetTime(), 0), true
	}
	return time.Time{}, false
}
