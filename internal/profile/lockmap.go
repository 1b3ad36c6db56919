package profile

import "sync"

// #region lockmap

// LockMap serializes decision and feedback work per user. Concurrent requests
// for different users proceed in parallel; two for the same user never
// interleave between gate evaluation and history append.
type LockMap struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockMap returns an empty per-user lock table.
func NewLockMap() *LockMap {
	return &LockMap{locks: map[string]*sync.Mutex{}}
}

// WithLock runs fn while holding the user's exclusive lock.
func (m *LockMap) WithLock(userID string, fn func() error) error {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn()
}

// #endregion lockmap
