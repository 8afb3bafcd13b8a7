package core

import (
	"sync"
)

// Service wires the store, the bounded view cache and the change engine
// into the operations the web layer exposes. Every entry point takes the
// calling user's id explicitly; there is no ambient identity.
type Service struct {
	store  Store
	cache  *ViewCache
	engine *Engine

	// Approvals against the same document serialize on a per-document
	// mutex around apply-persist-invalidate. Approvals against different
	// documents do not contend.
	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// NewService creates a Service. cacheSize bounds the view cache in entries.
func NewService(store Store, renderer Renderer, cacheSize int) *Service {
	return &Service{
		store:    store,
		cache:    NewViewCache(cacheSize),
		engine:   NewEngine(renderer),
		docLocks: make(map[string]*sync.Mutex),
	}
}

// docLock returns the mutation lock for one document, creating it lazily.
func (s *Service) docLock(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.docLocks[documentID]
	if !ok {
		l = &sync.Mutex{}
		s.docLocks[documentID] = l
	}
	return l
}

// CacheSummary reports the view cache counters.
func (s *Service) CacheSummary() CacheSummary { return s.cache.Summary() }

// CacheKeys lists the cached document ids, most recently used first.
func (s *Service) CacheKeys() []string { return s.cache.Keys() }

// CacheClear drops every cached view.
func (s *Service) CacheClear() { s.cache.Clear() }

// CacheRemove drops one cached view; false if it was not cached.
func (s *Service) CacheRemove(documentID string) bool { return s.cache.Remove(documentID) }
