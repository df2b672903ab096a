package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/quayside/gangway/vectorstore"
)

// Config carries the connection settings for a Redis server with the
// search and JSON modules loaded.
type Config struct {
	Addr     string
	Password string
	DB       int

	_ struct{}
}

// Store wraps a Redis client connection.
type Store struct {
	client *redis.Client
}

var _ vectorstore.Store = (*Store)(nil)

// New connects to a Redis server. Addr defaults to localhost:6379. The
// search commands need RESP2 responses, so Protocol is pinned to 2.
func New(cfg Config) *Store {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	return &Store{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Protocol: 2,
	})}
}

// FromClient wraps an existing client. Close then closes that client.
func FromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Client exposes the underlying connection for operations the collection
// API does not cover.
func (s *Store) Client() *redis.Client { return s.client }

// ListCollections returns the names of all search indexes on the server.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.FT_List(ctx).Result()
	if err != nil {
		return nil, &vectorstore.OpError{Op: "list collections", Err: err}
	}
	return names, nil
}

// Close tears down the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
