package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process LRU store with per-entry TTL and size-based
// eviction. A background janitor drops expired entries so prefix scans stay
// cheap.
type MemoryStore struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List

	stopJanitor chan struct{}
	janitorDone chan struct{}
	closeOnce   sync.Once
}

type memoryItem struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates a memory store capped at maxSize entries. The
// janitor wakes on cleanupInterval; pass 0 to disable it and rely on lazy
// expiry alone.
func NewMemoryStore(maxSize int, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		maxSize:     maxSize,
		items:       make(map[string]*list.Element),
		lru:         list.New(),
		stopJanitor: make(chan struct{}),
		janitorDone: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.janitor(cleanupInterval)
	} else {
		close(s.janitorDone)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[key]
	if !exists {
		return nil, false, nil
	}
	item := elem.Value.(*memoryItem)
	if time.Now().After(item.expiresAt) {
		s.removeElement(elem)
		return nil, false, nil
	}
	s.lru.MoveToFront(elem)
	return item.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &memoryItem{key: key, value: value, expiresAt: time.Now().Add(ttl)}
	if elem, exists := s.items[key]; exists {
		elem.Value = item
		s.lru.MoveToFront(elem)
		return nil
	}
	elem := s.lru.PushFront(item)
	s.items[key] = elem

	if s.maxSize > 0 && s.lru.Len() > s.maxSize {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
	return nil
}

// DeletePrefix drops every key starting with prefix and reports how many
// entries went.
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, elem := range s.items {
		if strings.HasPrefix(key, prefix) {
			s.removeElement(elem)
			removed++
		}
	}
	return removed, nil
}

// Size returns the current number of entries, expired ones included.
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Close stops the janitor. The store stays usable afterwards, and Close is
// safe to call from several goroutines.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopJanitor) })
	<-s.janitorDone
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.janitorDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanExpired()
		case <-s.stopJanitor:
			return
		}
	}
}

func (s *MemoryStore) cleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for _, elem := range s.items {
		if now.After(elem.Value.(*memoryItem).expiresAt) {
			s.removeElement(elem)
			removed++
		}
	}
	return removed
}

// removeElement must be called with the lock held.
func (s *MemoryStore) removeElement(elem *list.Element) {
	item := elem.Value.(*memoryItem)
	delete(s.items, item.key)
	s.lru.Remove(elem)
}
