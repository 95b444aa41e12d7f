package board

import "time"

const (
	// DefaultCount is the number of departures kept per route.
	DefaultCount = 3
	// DefaultHorizon is the furthest departure shown, in minutes.
	DefaultHorizon = 120
)

// NextDepartures reduces each route to at most n departures, expressed as
// whole minutes after now (truncated toward zero). Values above horizon are
// dropped, as are routes left with no departures.
func NextDepartures(routes map[string][]time.Time, now time.Time, n, horizon int) map[string][]int {
	out := make(map[string][]int, len(routes))
	for name, deps := range routes {
		sorted := sortedCopy(deps)
		if len(sorted) > n {
			sorted = sorted[:n]
		}

		var mins []int
		for _, d := range sorted {
			m := int(d.Sub(now).Minutes())
			if m > horizon {
				continue
			}
			mins = append(mins, m)
		}
		if len(mins) > 0 {
			out[name] = mins
		}
	}
	return out
}
