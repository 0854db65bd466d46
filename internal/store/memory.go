package store

import (
	"context"
	"slices"
	"sync"

	"github.com/serroba/brandlink/internal/analytics"
	"github.com/serroba/brandlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository and
// analytics.Store.
type MemoryStore struct {
	mu      sync.RWMutex
	domains map[string]*shortener.Domain // name -> domain
	links   map[string]*shortener.Link   // domainID/slug -> link
	byID    map[string]*shortener.Link   // link id -> link
	clicks  []*analytics.Click
	seen    map[string]bool // click ids
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		domains: make(map[string]*shortener.Domain),
		links:   make(map[string]*shortener.Link),
		byID:    make(map[string]*shortener.Link),
		seen:    make(map[string]bool),
	}
}

func linkKey(domainID string, slug shortener.Slug) string {
	return domainID + "/" + string(slug)
}

func (m *MemoryStore) GetDomainByName(_ context.Context, name string) (*shortener.Domain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.domains[shortener.NormalizeDomainName(name)]
	if !ok {
		return nil, shortener.ErrDomainNotFound
	}

	copied := *d

	return &copied, nil
}

func (m *MemoryStore) FindActiveLink(_ context.Context, domainID string, slug shortener.Slug) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.links[linkKey(domainID, slug)]
	if !ok || !l.IsActive {
		return nil, shortener.ErrLinkNotFound
	}

	return copyLink(l), nil
}

func (m *MemoryStore) IncrementClickCount(_ context.Context, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.byID[linkID]
	if !ok {
		return shortener.ErrLinkNotFound
	}

	l.Clicks++

	return nil
}

func (m *MemoryStore) SaveDomain(_ context.Context, domain *shortener.Domain) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := shortener.NormalizeDomainName(domain.Name)
	if existing, ok := m.domains[name]; ok && existing.ID != domain.ID {
		return shortener.ErrDomainTaken
	}

	if domain.IsDefault {
		for _, d := range m.domains {
			if d.UserID == domain.UserID {
				d.IsDefault = false
			}
		}
	}

	copied := *domain
	copied.Name = name
	m.domains[name] = &copied

	return nil
}

func (m *MemoryStore) SaveLink(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := linkKey(link.DomainID, link.Slug)
	if existing, ok := m.links[key]; ok && existing.ID != link.ID {
		return shortener.ErrSlugTaken
	}

	copied := copyLink(link)
	m.links[key] = copied
	m.byID[link.ID] = copied

	return nil
}

func (m *MemoryStore) SaveClick(_ context.Context, click *analytics.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Redelivered clicks keep their id and are stored once.
	if m.seen[click.ID] {
		return nil
	}

	copied := *click
	m.clicks = append(m.clicks, &copied)
	m.seen[click.ID] = true

	return nil
}

// CountClicks returns the number of click records stored for a link.
func (m *MemoryStore) CountClicks(_ context.Context, linkID string) (int64, error) {
	return int64(len(m.Clicks(linkID))), nil
}

// Clicks returns the clicks recorded for a link in insertion order.
func (m *MemoryStore) Clicks(linkID string) []*analytics.Click {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*analytics.Click

	for _, c := range m.clicks {
		if c.LinkID == linkID {
			copied := *c
			out = append(out, &copied)
		}
	}

	return out
}

// ClickCount returns the stored click counter of a link.
func (m *MemoryStore) ClickCount(linkID string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if l, ok := m.byID[linkID]; ok {
		return l.Clicks
	}

	return 0
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func copyLink(l *shortener.Link) *shortener.Link {
	copied := *l
	copied.Tags = slices.Clone(l.Tags)

	if l.ExpiresAt != nil {
		at := *l.ExpiresAt
		copied.ExpiresAt = &at
	}

	return &copied
}

var (
	_ shortener.Repository = (*MemoryStore)(nil)
	_ analytics.Store      = (*MemoryStore)(nil)
)
