package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValkeyStore implements Store using Valkey/Redis as the backend.
type ValkeyStore struct {
	client *redis.Client
}

// ValkeyConfig holds configuration for connecting to Valkey.
type ValkeyConfig struct {
	Addr     string // host:port
	Password string // optional
	DB       int    // database number
}

// NewValkeyStore connects to Valkey and verifies the connection within 5s.
func NewValkeyStore(ctx context.Context, cfg ValkeyConfig) (*ValkeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewValkeyStoreFromClient(client), nil
}

// NewValkeyStoreFromClient wraps an existing client.
func NewValkeyStoreFromClient(client *redis.Client) *ValkeyStore {
	return &ValkeyStore{client: client}
}

func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *ValkeyStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *ValkeyStore) GetDel(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

// Ping reports whether Valkey is reachable.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the connection to Valkey.
func (s *ValkeyStore) Close() error {
	return s.client.Close()
}

// Ensure ValkeyStore implements Store.
var _ Store = (*ValkeyStore)(nil)
