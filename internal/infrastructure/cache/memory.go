package cache

import (
	"sync"
	"time"
)

// MemoryStore is an in-process set of expiring flags. Each flag remembers
// when it was raised.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]flag
	done  chan struct{}
	once  sync.Once
}

type flag struct {
	raisedAt  time.Time
	expiresAt time.Time // zero means no expiry
}

func (f flag) live(now time.Time) bool {
	return f.expiresAt.IsZero() || now.Before(f.expiresAt)
}

// NewMemoryStore starts a sweeper that drops expired flags every interval.
// A non-positive interval disables sweeping; expired flags are then only
// hidden from readers.
func NewMemoryStore(interval time.Duration) *MemoryStore {
	s := &MemoryStore{
		flags: make(map[string]flag),
		done:  make(chan struct{}),
	}
	if interval > 0 {
		go s.sweep(interval)
	}
	return s
}

// Raise sets key. A non-positive ttl keeps it until Lower.
func (s *MemoryStore) Raise(key string, ttl time.Duration) {
	now := time.Now()
	f := flag{raisedAt: now}
	if ttl > 0 {
		f.expiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	s.flags[key] = f
	s.mu.Unlock()
}

func (s *MemoryStore) RaisedAt(key string) (time.Time, bool) {
	s.mu.RLock()
	f, ok := s.flags[key]
	s.mu.RUnlock()

	if !ok || !f.live(time.Now()) {
		return time.Time{}, false
	}
	return f.raisedAt, true
}

func (s *MemoryStore) Lower(key string) {
	s.mu.Lock()
	delete(s.flags, key)
	s.mu.Unlock()
}

// Len counts stored flags, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flags)
}

func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for key, f := range s.flags {
				if !f.live(now) {
					delete(s.flags, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
