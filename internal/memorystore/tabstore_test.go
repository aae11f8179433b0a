package memorystore

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeTab struct {
	id     string
	closed atomic.Bool
}

func (f *fakeTab) Close() { f.closed.Store(true) }

// go test -v --run TestTabStoreGetCreatesOnce
func TestTabStoreGetCreatesOnce(t *testing.T) {
	created := 0
	store := NewTabStore(time.Minute, func(id string) *fakeTab {
		created++
		return &fakeTab{id: id}
	})
	defer store.Close()

	a := store.Get("a")
	again := store.Get("a")
	b := store.Get("b")

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, store.Len())
}

func TestTabStoreSweepClosesIdle(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	store := NewTabStore(10*time.Minute, func(id string) *fakeTab { return &fakeTab{id: id} })
	store.now = func() time.Time { return now }
	defer store.Close()

	idle := store.Get("idle")
	now = now.Add(8 * time.Minute)
	active := store.Get("active")
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, store.Sweep())
	assert.True(t, idle.closed.Load())
	assert.False(t, active.closed.Load())
	assert.Equal(t, 1, store.Len())
}

func TestTabStoreRemove(t *testing.T) {
	store := NewTabStore(time.Minute, func(id string) *fakeTab { return &fakeTab{id: id} })
	defer store.Close()

	tab := store.Get("x")
	store.Remove("x")
	store.Remove("missing")

	assert.True(t, tab.closed.Load())
	assert.Equal(t, 0, store.Len())
}

func TestTabStoreSweeperAndClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewTabStore(time.Nanosecond, func(id string) *fakeTab { return &fakeTab{id: id} })
	evictions := make(chan int, 10)
	store.StartSweeper(5*time.Millisecond, func(n int) { evictions <- n })

	tab := store.Get("short-lived")
	select {
	case n := <-evictions:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("sweeper never evicted the idle tab")
	}
	require.True(t, tab.closed.Load())

	remaining := store.Get("remaining")
	store.Close()
	store.Close()
	assert.True(t, remaining.closed.Load())
}
