// Package database is the example app's user store. It is in-memory by
// default; Open with a redis:// URL shares users between instances.
package database

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// User is a stored user.
type User struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Store persists users keyed by slug.
type Store interface {
	Set(ctx context.Context, u User) error
	Get(ctx context.Context, slug string) (User, bool, error)
	List(ctx context.Context) ([]User, error)
	Close() error
}

var current atomic.Value

func init() {
	current.Store(storeHolder{NewMemoryStore()})
}

type storeHolder struct{ Store }

// Users returns the process-wide store.
func Users() Store {
	return current.Load().(storeHolder).Store
}

// Use replaces the process-wide store.
func Use(s Store) {
	current.Store(storeHolder{s})
}

// Open returns a Redis store for a redis:// URL and a memory store for "".
func Open(ctx context.Context, url string) (Store, error) {
	if url == "" {
		return NewMemoryStore(), nil
	}
	return NewRedisStore(ctx, url)
}

// MemoryStore keeps users in a map.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

func (m *MemoryStore) Set(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Slug] = u
	return nil
}

func (m *MemoryStore) Get(_ context.Context, slug string) (User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[slug]
	return u, ok, nil
}

// List returns users ordered by slug.
func (m *MemoryStore) List(context.Context) ([]User, error) {
	m.mu.RLock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	m.mu.RUnlock()
	sortUsers(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

func sortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Slug < users[j].Slug })
}
