package metadata

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"
)

// Labels maps a dotted field path to its display label.
type Labels map[string]string

// Entry is one cached label mapping.
type Entry struct {
	Key       string
	Labels    Labels
	UpdatedAt time.Time
}

// LabelStore caches label mappings by cache key.
type LabelStore interface {
	Get(ctx context.Context, key string) (Labels, bool, error)
	Put(ctx context.Context, key string, labels Labels) error
	Invalidate(ctx context.Context, key string) error
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
}

// MemoryStore is a process local LabelStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]Entry{},
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Labels, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(e.Labels), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, labels Labels) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{Key: key, Labels: maps.Clone(labels), UpdatedAt: m.now()}
	return nil
}

func (m *MemoryStore) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rv := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		rv = append(rv, e)
	}
	sort.Slice(rv, func(i, j int) bool { return rv[i].Key < rv[j].Key })
	return rv, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]Entry{}
	return nil
}

// LayeredStore reads through a fast front store to a persistent back store.
type LayeredStore struct {
	front LabelStore
	back  LabelStore
}

func NewLayeredStore(front, back LabelStore) *LayeredStore {
	return &LayeredStore{front: front, back: back}
}

func (l *LayeredStore) Get(ctx context.Context, key string) (Labels, bool, error) {
	if labels, ok, err := l.front.Get(ctx, key); err != nil || ok {
		return labels, ok, err
	}
	labels, ok, err := l.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := l.front.Put(ctx, key, labels); err != nil {
		return nil, false, err
	}
	return labels, true, nil
}

func (l *LayeredStore) Put(ctx context.Context, key string, labels Labels) error {
	if err := l.back.Put(ctx, key, labels); err != nil {
		return err
	}
	return l.front.Put(ctx, key, labels)
}

func (l *LayeredStore) Invalidate(ctx context.Context, key string) error {
	if err := l.back.Invalidate(ctx, key); err != nil {
		return err
	}
	return l.front.Invalidate(ctx, key)
}

// List reports the persistent entries.
func (l *LayeredStore) List(ctx context.Context) ([]Entry, error) {
	return l.back.List(ctx)
}

func (l *LayeredStore) Clear(ctx context.Context) error {
	if err := l.back.Clear(ctx); err != nil {
		return err
	}
	return l.front.Clear(ctx)
}
