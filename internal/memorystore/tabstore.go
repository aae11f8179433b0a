// Package memorystore keeps per-tab component instances in memory.
package memorystore

import (
	"sync"
	"time"
)

// Disposable is anything that must be torn down when its tab goes away.
type Disposable interface {
	Close()
}

type tabEntry[T Disposable] struct {
	value    T
	lastSeen time.Time
}

// TabStore maps tab ids to their component instances. Entries idle longer
// than the configured timeout are evicted and closed.
type TabStore[T Disposable] struct {
	mu      sync.Mutex
	tabs    map[string]*tabEntry[T]
	newFn   func(id string) T
	idleTTL time.Duration
	now     func() time.Time

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewTabStore[T Disposable](idleTTL time.Duration, newFn func(id string) T) *TabStore[T] {
	return &TabStore[T]{
		tabs:    make(map[string]*tabEntry[T]),
		newFn:   newFn,
		idleTTL: idleTTL,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Get returns the instance for id, creating it on first use, and marks the tab active.
func (s *TabStore[T]) Get(id string) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tabs[id]
	if !ok {
		entry = &tabEntry[T]{value: s.newFn(id)}
		s.tabs[id] = entry
	}
	entry.lastSeen = s.now()
	return entry.value
}

// Remove closes and forgets the tab, if present.
func (s *TabStore[T]) Remove(id string) {
	s.mu.Lock()
	entry, ok := s.tabs[id]
	delete(s.tabs, id)
	s.mu.Unlock()

	if ok {
		entry.value.Close()
	}
}

// Len returns the number of live tabs.
func (s *TabStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs)
}

// Sweep evicts every tab idle for longer than the timeout and returns how many went.
func (s *TabStore[T]) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var evicted []T
	for id, entry := range s.tabs {
		if entry.lastSeen.Before(cutoff) {
			evicted = append(evicted, entry.value)
			delete(s.tabs, id)
		}
	}
	s.mu.Unlock()

	for _, v := range evicted {
		v.Close()
	}
	return len(evicted)
}

// StartSweeper runs Sweep every interval until Close.
func (s *TabStore[T]) StartSweeper(interval time.Duration, onSweep func(evicted int)) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 && onSweep != nil {
					onSweep(n)
				}
			}
		}
	}()
}

// Close stops the sweeper, if running, and closes every tab.
func (s *TabStore[T]) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}

	s.mu.Lock()
	tabs := s.tabs
	s.tabs = make(map[string]*tabEntry[T])
	s.mu.Unlock()

	for _, entry := range tabs {
		entry.value.Close()
	}
}
