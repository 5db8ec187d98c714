package service

import (
	"sync"
)

// GroupLocks hands out one mutex per key, released once no caller holds or waits on it
type GroupLocks struct {
	mu    sync.Mutex
	locks map[string]*groupLock
}

type groupLock struct {
	mu   sync.Mutex
	refs int
}

// NewGroupLocks creates an empty lock table
func NewGroupLocks() *GroupLocks {
	return &GroupLocks{locks: make(map[string]*groupLock)}
}

// Lock blocks until the key is free and returns the function that releases it
func (g *GroupLocks) Lock(key string) func() {
	g.mu.Lock()
	l, ok := g.locks[key]
	if !ok {
		l = &groupLock{}
		g.locks[key] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			g.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(g.locks, key)
			}
			g.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently held or awaited
func (g *GroupLocks) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
