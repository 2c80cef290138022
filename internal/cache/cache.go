// Package cache provides a small generic LRU with TTL used to cache report
// aggregates between ledger mutations.
package cache

import "time"

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic expiry sweeps over registered caches.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup sweeps all registered caches on the given interval until
// Stop is called. Register before starting; the slice is not locked.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.cleanupDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, cache := range m.caches {
					cache.CleanExpired()
				}
			case <-m.stopCleanup:
				return
			}
		}
	}()
}

func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
