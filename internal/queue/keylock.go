package queue

import "sync"

// keyLocks serializes queue mutations per (doctor, date) so two
// near-simultaneous admissions never recompute positions from a stale
// snapshot. The map holds one mutex per key for the process lifetime; keys
// are doctor-days, so growth is small and bounded in practice.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *keyLocks) get(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}
