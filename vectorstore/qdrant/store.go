package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	"github.com/quayside/gangway/vectorstore"
)

// Config carries the connection settings for a Qdrant gRPC endpoint.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	_ struct{}
}

// Store wraps a Qdrant client connection.
type Store struct {
	client *qdrant.Client
}

var _ vectorstore.Store = (*Store)(nil)

// New dials a Qdrant gRPC endpoint. Host defaults to localhost, Port to
// 6334.
func New(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, &vectorstore.OpError{Op: "connect", Err: err}
	}
	return &Store{client: client}, nil
}

// FromClient wraps an existing client. Close then closes that client.
func FromClient(client *qdrant.Client) *Store {
	return &Store{client: client}
}

// Client exposes the underlying connection for operations the collection
// API does not cover.
func (s *Store) Client() *qdrant.Client { return s.client }

// ListCollections returns the names of all collections on the server.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, &vectorstore.OpError{Op: "list collections", Err: err}
	}
	return names, nil
}

// Close tears down the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}
