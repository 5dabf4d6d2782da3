package memory

import (
	"context"
	"sync"
	"time"

	"bidmarket/internal/domain"
	"bidmarket/pkg/utils"
)

type lockEntry struct {
	token    string
	expires  time.Time
	released chan struct{}
}

// LockManager is an in-process domain.LockManager. Leases expire lazily: the
// next contender takes over an entry whose lease has passed.
type LockManager struct {
	entries map[string]*lockEntry
	mutex   sync.Mutex
	now     func() time.Time
}

func NewLockManager() *LockManager {
	return &LockManager{
		entries: make(map[string]*lockEntry),
		now:     time.Now,
	}
}

func (m *LockManager) TryAcquire(ctx context.Context, key string, wait, lease time.Duration) (domain.Lock, bool, error) {
	deadline := m.now().Add(wait)

	for {
		m.mutex.Lock()
		now := m.now()
		current, exists := m.entries[key]
		if !exists || !now.Before(current.expires) {
			entry := &lockEntry{
				token:    utils.GenerateID("lock"),
				expires:  now.Add(lease),
				released: make(chan struct{}),
			}
			m.entries[key] = entry
			m.mutex.Unlock()
			return &localLock{manager: m, key: key, entry: entry}, true, nil
		}
		released := current.released
		wakeAt := current.expires
		m.mutex.Unlock()

		if !now.Before(deadline) {
			return nil, false, nil
		}
		if deadline.Before(wakeAt) {
			wakeAt = deadline
		}

		timer := time.NewTimer(wakeAt.Sub(now))
		select {
		case <-released:
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, false, ctx.Err()
		}
		timer.Stop()
	}
}

func (m *LockManager) release(key string, entry *lockEntry) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	// A holder whose lease expired must not release its successor.
	if current, exists := m.entries[key]; exists && current.token == entry.token {
		delete(m.entries, key)
		close(entry.released)
	}
}

type localLock struct {
	manager *LockManager
	key     string
	entry   *lockEntry
	once    sync.Once
}

func (l *localLock) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.manager.release(l.key, l.entry)
	})
	return nil
}
