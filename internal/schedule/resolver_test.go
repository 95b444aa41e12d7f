package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"poppy/internal/geo"
	"poppy/internal/storage"
)

type fakeStore struct {
	stations    []storage.StationRow
	platforms   map[string][]string
	services    []string
	departures  []storage.DepartureRow
	err         error
	gotWeekday  time.Weekday
	gotDate     int
	gotFrom     int64
	gotStopID   string
	gotServices []string
}

func (f *fakeStore) ParentStations(context.Context) ([]storage.StationRow, error) {
	return f.stations, f.err
}

func (f *fakeStore) PlatformIDs(_ context.Context, id string) ([]string, error) {
	return f.platforms[id], f.err
}

func (f *fakeStore) ActiveServiceIDs(_ context.Context, wd time.Weekday, date int) ([]string, error) {
	f.gotWeekday, f.gotDate = wd, date
	return f.services, f.err
}

func (f *fakeStore) DeparturesAtStop(_ context.Context, stopID string, services []string, from int64) ([]storage.DepartureRow, error) {
	f.gotStopID, f.gotServices, f.gotFrom = stopID, services, from
	var out []storage.DepartureRow
	for _, d := range f.departures {
		if d.DepartureTimestamp >= from {
			out = append(out, d)
		}
	}
	return out, f.err
}

func newTestResolver(t *testing.T, store Store) *Resolver {
	t.Helper()
	return NewResolver(store, mustLoad(t, "America/Los_Angeles"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNearestStop(t *testing.T) {
	store := &fakeStore{
		stations: []storage.StationRow{
			{StopID: "24TH", Name: "24th St Mission", StopLat: 37.752254, StopLon: -122.418466},
			{StopID: "16TH", Name: "16th St Mission", StopLat: 37.765062, StopLon: -122.419694},
			{StopID: "12TH", Name: "12th St Oakland", StopLat: 37.803768, StopLon: -122.271450},
		},
		platforms: map[string][]string{"16TH": {"16TH_1"}},
	}
	r := newTestResolver(t, store)

	stop, err := r.NearestStop(context.Background(), geo.Coordinate{Lat: 37.764831501887876, Lon: -122.42142043985223})
	if err != nil {
		t.Fatalf("NearestStop: %v", err)
	}
	if stop.ID != "16TH" {
		t.Errorf("stop = %q, want 16TH", stop.ID)
	}
	if !slices.Equal(stop.PlatformIDs, []string{"16TH_1"}) {
		t.Errorf("platforms = %v", stop.PlatformIDs)
	}
	if stop.DistanceMiles <= 0 || stop.DistanceMiles > 0.2 {
		t.Errorf("distance = %f mi, want (0, 0.2]", stop.DistanceMiles)
	}
}

func TestNearestStop_TieKeepsFirst(t *testing.T) {
	store := &fakeStore{
		stations: []storage.StationRow{
			{StopID: "A", StopLat: 1, StopLon: 0},
			{StopID: "B", StopLat: -1, StopLon: 0},
		},
	}
	r := newTestResolver(t, store)
	stop, err := r.NearestStop(context.Background(), geo.Coordinate{})
	if err != nil {
		t.Fatalf("NearestStop: %v", err)
	}
	if stop.ID != "A" {
		t.Errorf("tie resolved to %q, want first station A", stop.ID)
	}
}

func TestNearestStop_Errors(t *testing.T) {
	r := newTestResolver(t, &fakeStore{})
	if _, err := r.NearestStop(context.Background(), geo.Coordinate{}); !errors.Is(err, ErrNoStations) {
		t.Errorf("empty store err = %v, want ErrNoStations", err)
	}

	boom := errors.New("disk I/O error")
	r = newTestResolver(t, &fakeStore{err: boom})
	if _, err := r.NearestStop(context.Background(), geo.Coordinate{}); !errors.Is(err, boom) {
		t.Errorf("store failure err = %v, want wrapped %v", err, boom)
	}
}

func TestActiveServiceIDs_UsesResolverZone(t *testing.T) {
	store := &fakeStore{services: []string{"WKDY"}}
	r := newTestResolver(t, store)

	// 2025-05-27 05:00 UTC is still Monday the 26th in Los Angeles.
	got := r.ActiveServiceIDs(context.Background(), time.Date(2025, 5, 27, 5, 0, 0, 0, time.UTC))
	if !slices.Equal(got, []string{"WKDY"}) {
		t.Errorf("ActiveServiceIDs = %v", got)
	}
	if store.gotWeekday != time.Monday || store.gotDate != 20250526 {
		t.Errorf("queried %v %d, want Monday 20250526", store.gotWeekday, store.gotDate)
	}
}

func TestActiveServiceIDs_StoreErrorIsEmpty(t *testing.T) {
	r := newTestResolver(t, &fakeStore{err: errors.New("no such table: calendar")})
	if got := r.ActiveServiceIDs(context.Background(), time.Now()); len(got) != 0 {
		t.Errorf("ActiveServiceIDs on error = %v, want empty", got)
	}
}

func TestScheduledDepartures(t *testing.T) {
	la := mustLoad(t, "America/Los_Angeles")
	store := &fakeStore{
		departures: []storage.DepartureRow{
			{TripID: "T0", DepartureTimestamp: 35000},
			{TripID: "T1", DepartureTimestamp: 36000},
			{TripID: "T2", DepartureTimestamp: 36300},
			{TripID: "T3", DepartureTimestamp: 90600},
		},
	}
	r := newTestResolver(t, store)
	now := time.Date(2025, 5, 27, 9, 58, 0, 0, la)
	stop := Stop{ID: "16TH", PlatformIDs: []string{"16TH_1"}}

	got, err := r.ScheduledDepartures(context.Background(), stop, []string{"WKDY"}, now)
	if err != nil {
		t.Fatalf("ScheduledDepartures: %v", err)
	}
	want := map[string]time.Time{
		"T1": time.Date(2025, 5, 27, 10, 0, 0, 0, la),
		"T2": time.Date(2025, 5, 27, 10, 5, 0, 0, la),
		"T3": time.Date(2025, 5, 28, 1, 10, 0, 0, la),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d departures %v, want %d", len(got), got, len(want))
	}
	for trip, w := range want {
		if !got[trip].Equal(w) {
			t.Errorf("%s = %v, want %v", trip, got[trip], w)
		}
	}
	if store.gotStopID != "16TH_1" || store.gotFrom != 9*3600+58*60 {
		t.Errorf("queried stop %q from %d", store.gotStopID, store.gotFrom)
	}
}

func TestScheduledDepartures_PlatformCount(t *testing.T) {
	r := newTestResolver(t, &fakeStore{})
	for _, platforms := range [][]string{nil, {"A", "B"}} {
		_, err := r.ScheduledDepartures(context.Background(), Stop{ID: "X", PlatformIDs: platforms}, nil, time.Now())
		if !errors.Is(err, ErrPlatformCount) {
			t.Errorf("%d platforms: err = %v, want ErrPlatformCount", len(platforms), err)
		}
	}
}

func TestScheduledDepartures_StoreErrorIsEmpty(t *testing.T) {
	r := newTestResolver(t, &fakeStore{err: errors.New("database is locked")})
	got, err := r.ScheduledDepartures(context.Background(), Stop{ID: "X", PlatformIDs: []string{"X_1"}}, []string{"S"}, time.Now())
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
