package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the hash holding every user.
const DefaultKey = "remastered:users"

// RedisStore keeps users in one Redis hash, field = slug.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to url, e.g. redis://:password@localhost:6379/0.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("database: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("database: ping %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, key: DefaultKey}, nil
}

// WithKey returns a store using another hash.
func (s *RedisStore) WithKey(key string) *RedisStore {
	return &RedisStore{client: s.client, key: key}
}

func (s *RedisStore) Set(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, u.Slug, data).Err()
}

func (s *RedisStore) Get(ctx context.Context, slug string) (User, bool, error) {
	data, err := s.client.HGet(ctx, s.key, slug).Bytes()
	if err == redis.Nil {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, false, fmt.Errorf("database: decode user %q: %w", slug, err)
	}
	return u, true, nil
}

// List returns users ordered by slug.
func (s *RedisStore) List(ctx context.Context) ([]User, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(all))
	for slug, raw := range all {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("database: decode user %q: %w", slug, err)
		}
		out = append(out, u)
	}
	sortUsers(out)
	return out, nil
}

// Clear removes every user.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
