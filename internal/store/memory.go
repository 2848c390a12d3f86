package store

import (
	"context"
	"sync"

	"github.com/serroba/hashlink/internal/links"
)

// MemoryStore is an in-memory implementation of links.Store.
type MemoryStore struct {
	mu     sync.RWMutex
	seq    int64
	tokens map[links.Token]*links.Link        // token -> link
	urls   map[links.CanonicalURL]*links.Link // url -> link
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[links.Token]*links.Link),
		urls:   make(map[links.CanonicalURL]*links.Link),
	}
}

func (m *MemoryStore) StoreOrReuse(_ context.Context, url links.CanonicalURL, candidate links.Token) (links.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.urls[url]; ok {
		return links.Claim{Outcome: links.OutcomeReused, Token: existing.Token, ID: existing.ID}, nil
	}

	if _, ok := m.tokens[candidate]; ok {
		return links.Claim{Outcome: links.OutcomeCollision}, nil
	}

	m.seq++
	link := &links.Link{ID: m.seq, URL: url, Token: candidate}
	m.tokens[candidate] = link
	m.urls[url] = link

	return links.Claim{Outcome: links.OutcomeClaimed, Token: candidate, ID: link.ID}, nil
}

func (m *MemoryStore) LookupByToken(_ context.Context, token links.Token) (*links.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.tokens[token]
	if !ok {
		return nil, links.ErrNotFound
	}

	found := *link

	return &found, nil
}

func (m *MemoryStore) LookupByURL(_ context.Context, url links.CanonicalURL) (*links.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.urls[url]
	if !ok {
		return nil, links.ErrNotFound
	}

	found := *link

	return &found, nil
}

// Len returns the number of stored links.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.tokens)
}

// Compile-time check.
var _ links.Store = (*MemoryStore)(nil)
