package board

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_CurrentBeforePublish(t *testing.T) {
	assert.Nil(t, NewPublisher().Current())
}

func TestPublisher_LatestWins(t *testing.T) {
	p := NewPublisher()
	t0 := time.Date(2025, 5, 27, 10, 0, 0, 0, time.UTC)

	first := &Board{LastUpdated: t0}
	newer := &Board{LastUpdated: t0.Add(time.Minute)}
	older := &Board{LastUpdated: t0.Add(30 * time.Second)}

	require.True(t, p.Publish(first))
	require.True(t, p.Publish(newer))
	assert.False(t, p.Publish(older), "older board must not replace a newer one")
	assert.Same(t, newer, p.Current())

	same := &Board{LastUpdated: newer.LastUpdated}
	assert.True(t, p.Publish(same), "equal timestamps: last publish wins")
	assert.Same(t, same, p.Current())
}

func TestPublisher_Changed(t *testing.T) {
	p := NewPublisher()
	ch := p.Changed()

	select {
	case <-ch:
		t.Fatal("Changed closed before publish")
	default:
	}

	p.Publish(&Board{LastUpdated: time.Now()})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Changed not closed after publish")
	}
	assert.NotEqual(t, ch, p.Changed())
}

func TestPublisher_ConcurrentPublish(t *testing.T) {
	p := NewPublisher()
	base := time.Date(2025, 5, 27, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			p.Publish(&Board{LastUpdated: base.Add(time.Duration(n) * time.Second)})
		}(i)
		go func() {
			defer wg.Done()
			_ = p.Current()
		}()
	}
	wg.Wait()

	require.NotNil(t, p.Current())
	assert.Equal(t, base.Add(99*time.Second), p.Current().LastUpdated)
}

func TestBoard_Routes(t *testing.T) {
	b := &Board{Departures: map[string][]int{"Millbrae": {3}, "Antioch": {5}, "Daly City": {1}}}
	assert.Equal(t, []string{"Antioch", "Daly City", "Millbrae"}, b.Routes())
}
