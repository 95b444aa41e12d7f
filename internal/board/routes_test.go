package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Richmond to Millbrae", "Millbrae"},
		{"Antioch to SFIA/Millbrae", "SFIA/Millbrae"},
		{"Berryessa/North San Jose to Daly City", "Daly City"},
		{"Oakland Airport", "Oakland Airport"},
		{"Pittsburg/Bay Point to SFO to Millbrae", "SFO to Millbrae"},
		{"Toledo", "Toledo"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.raw); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

type mapLookup struct {
	names map[string]string
	calls int
}

func (m *mapLookup) RouteNameForTrip(_ context.Context, tripID string) (string, error) {
	m.calls++
	name, ok := m.names[tripID]
	if !ok {
		return "", fmt.Errorf("trip %s: %w", tripID, errors.New("not found"))
	}
	return name, nil
}

func TestRouteDepartures(t *testing.T) {
	base := time.Date(2025, 5, 27, 10, 0, 0, 0, time.UTC)
	lookup := &mapLookup{names: map[string]string{
		"T1": "Richmond to Millbrae",
		"T2": "Richmond to Millbrae",
		"T3": "Antioch to SFIA/Millbrae",
	}}
	merged := map[string]time.Time{
		"T1":     base.Add(5 * time.Minute),
		"T2":     base.Add(20 * time.Minute),
		"T3":     base.Add(7 * time.Minute),
		"ORPHAN": base.Add(1 * time.Minute),
	}

	got := RouteDepartures(context.Background(), lookup, merged, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Len(t, got, 2)
	assert.ElementsMatch(t, []time.Time{base.Add(5 * time.Minute), base.Add(20 * time.Minute)}, got["Millbrae"])
	assert.Equal(t, []time.Time{base.Add(7 * time.Minute)}, got["SFIA/Millbrae"])
}

func TestCachedLookup(t *testing.T) {
	inner := &mapLookup{names: map[string]string{"T1": "Richmond to Millbrae"}}
	c := NewCachedLookup(inner, time.Minute)
	defer c.Close()

	for i := 0; i < 3; i++ {
		name, err := c.RouteNameForTrip(context.Background(), "T1")
		require.NoError(t, err)
		assert.Equal(t, "Richmond to Millbrae", name)
	}
	assert.Equal(t, 1, inner.calls)

	_, err := c.RouteNameForTrip(context.Background(), "missing")
	assert.Error(t, err)
	_, err = c.RouteNameForTrip(context.Background(), "missing")
	assert.Error(t, err)
	assert.Equal(t, 3, inner.calls, "failed lookups are not cached")
}
