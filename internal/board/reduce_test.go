package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDepartures(t *testing.T) {
	now := time.Date(2025, 5, 27, 10, 0, 0, 0, time.UTC)
	in := func(d time.Duration) time.Time { return now.Add(d) }

	tests := []struct {
		name   string
		routes map[string][]time.Time
		want   map[string][]int
	}{
		{
			name: "sorts, truncates to three and drops beyond horizon",
			routes: map[string][]time.Time{
				"X": {in(5 * time.Minute), in(200 * time.Minute), in(10 * time.Minute), in(15 * time.Minute)},
			},
			want: map[string][]int{"X": {5, 10, 15}},
		},
		{
			name: "horizon applied after truncation",
			routes: map[string][]time.Time{
				"X": {in(5 * time.Minute), in(121 * time.Minute), in(200 * time.Minute)},
			},
			want: map[string][]int{"X": {5}},
		},
		{
			name: "exactly at horizon is kept",
			routes: map[string][]time.Time{
				"X": {in(120 * time.Minute)},
			},
			want: map[string][]int{"X": {120}},
		},
		{
			name: "seconds truncate toward zero",
			routes: map[string][]time.Time{
				"X": {in(30 * time.Second), in(119 * time.Second)},
			},
			want: map[string][]int{"X": {0, 1}},
		},
		{
			name: "just departed is kept",
			routes: map[string][]time.Time{
				"X": {in(-30 * time.Second), in(-90 * time.Second)},
			},
			want: map[string][]int{"X": {-1, 0}},
		},
		{
			name: "empty routes omitted",
			routes: map[string][]time.Time{
				"X": {in(300 * time.Minute)},
				"Y": {},
				"Z": {in(2 * time.Minute)},
			},
			want: map[string][]int{"Z": {2}},
		},
		{
			name:   "no routes",
			routes: nil,
			want:   map[string][]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDepartures(tt.routes, now, DefaultCount, DefaultHorizon))
		})
	}
}

func TestNextDepartures_DoesNotModifyInput(t *testing.T) {
	now := time.Date(2025, 5, 27, 10, 0, 0, 0, time.UTC)
	deps := []time.Time{now.Add(9 * time.Minute), now.Add(3 * time.Minute)}
	NextDepartures(map[string][]time.Time{"X": deps}, now, DefaultCount, DefaultHorizon)
	assert.Equal(t, now.Add(9*time.Minute), deps[0])
}
