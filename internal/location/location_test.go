package location

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"poppy/internal/geo"
	"poppy/internal/geocode"
)

var mission = geo.Coordinate{Lat: 37.764831501887876, Lon: -122.42142043985223}

func TestTracker(t *testing.T) {
	tr := NewTracker(mission)

	got, err := tr.Locate(context.Background())
	if err != nil || got != mission {
		t.Fatalf("Locate() = %+v, %v; want default", got, err)
	}
	if !tr.Updated().IsZero() {
		t.Error("Updated() should be zero before any fix")
	}

	oakland := geo.Coordinate{Lat: 37.8037, Lon: -122.2714}
	if err := tr.Update(oakland); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := tr.Locate(context.Background()); got != oakland {
		t.Errorf("Locate() after update = %+v", got)
	}
	if tr.Updated().IsZero() {
		t.Error("Updated() should be set after a fix")
	}
}

func TestTracker_RejectsInvalid(t *testing.T) {
	tr := NewTracker(mission)
	for _, c := range []geo.Coordinate{{Lat: 100}, {Lon: 200}, {Lat: math.NaN()}} {
		if err := tr.Update(c); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("Update(%+v) = %v, want ErrInvalidCoordinate", c, err)
		}
	}
	if got, _ := tr.Locate(context.Background()); got != mission {
		t.Errorf("invalid fix replaced last known location: %+v", got)
	}
}

func TestTracker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewTracker(mission).Locate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Locate() err = %v, want context.Canceled", err)
	}
}

type fakeGeocoder struct {
	res *geocode.Result
	err error
}

func (f fakeGeocoder) Search(context.Context, string) (*geocode.Result, error) {
	return f.res, f.err
}

func TestResolveDefault(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	found := geo.Coordinate{Lat: 37.8, Lon: -122.27}

	tests := []struct {
		name    string
		g       Geocoder
		address string
		want    geo.Coordinate
	}{
		{"no address", fakeGeocoder{err: errors.New("unused")}, "", mission},
		{"geocoded", fakeGeocoder{res: &geocode.Result{Coordinate: found}}, "Oakland", found},
		{"geocode failure", fakeGeocoder{err: geocode.ErrNoResults}, "Nowhere", mission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDefault(context.Background(), tt.g, tt.address, mission, logger); got != tt.want {
				t.Errorf("ResolveDefault() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
