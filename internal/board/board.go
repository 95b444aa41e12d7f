// Package board turns merged departures into the published departure board.
package board

import (
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"poppy/internal/schedule"
)

// Board is the published departure board. A Board is never modified after
// it has been published.
type Board struct {
	Stop        schedule.Stop    `json:"stop"`
	Departures  map[string][]int `json:"departures"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Routes returns the board's route names sorted alphabetically.
func (b *Board) Routes() []string {
	names := make([]string, 0, len(b.Departures))
	for name := range b.Departures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Publisher owns the current board. Readers never observe a partially
// built board, and a board older than the current one is never published
// over it.
type Publisher struct {
	current atomic.Pointer[Board]

	mu      sync.Mutex
	changed chan struct{}
}

// NewPublisher creates a Publisher with no board.
func NewPublisher() *Publisher {
	return &Publisher{changed: make(chan struct{})}
}

// Current returns the published board, or nil before the first publish.
func (p *Publisher) Current() *Board {
	return p.current.Load()
}

// Publish replaces the current board with b unless the current board has a
// later LastUpdated. It reports whether b was published.
func (p *Publisher) Publish(b *Board) bool {
	for {
		cur := p.current.Load()
		if cur != nil && b.LastUpdated.Before(cur.LastUpdated) {
			return false
		}
		if p.current.CompareAndSwap(cur, b) {
			p.notify()
			return true
		}
	}
}

// Changed returns a channel that is closed on the next successful Publish.
func (p *Publisher) Changed() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changed
}

func (p *Publisher) notify() {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.changed)
	p.changed = make(chan struct{})
}

// sortedCopy returns ts sorted ascending without modifying ts.
func sortedCopy(ts []time.Time) []time.Time {
	out := slices.Clone(ts)
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}
