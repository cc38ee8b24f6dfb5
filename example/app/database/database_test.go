package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "ada")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, User{Name: "Grace Hopper", Slug: "Grace-Hopper"}))
	require.NoError(t, s.Set(ctx, User{Name: "Ada", Slug: "Ada"}))
	require.NoError(t, s.Set(ctx, User{Name: "Ada L", Slug: "Ada"}))

	u, ok, err := s.Get(ctx, "Ada")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ada L", u.Name)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []User{
		{Name: "Ada L", Slug: "Ada"},
		{Name: "Grace Hopper", Slug: "Grace-Hopper"},
	}, all)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url)
	require.NoError(t, err)
	s = s.WithKey("remastered:test:" + t.Name())
	t.Cleanup(func() {
		_ = s.Clear(context.Background())
		_ = s.Close()
	})
	require.NoError(t, s.Clear(context.Background()))

	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestUse(t *testing.T) {
	prev := Users()
	t.Cleanup(func() { Use(prev) })

	s := NewMemoryStore()
	Use(s)
	assert.Same(t, s, Users())
}
