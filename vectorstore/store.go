package vectorstore

import "context"

// Store is a vector database connection that can enumerate its collections.
type Store interface {
	ListCollections(ctx context.Context) ([]string, error)
	Close() error
}

// Collection is a typed handle on one collection of records.
type Collection[TKey comparable, TModel any] interface {
	Name() string

	EnsureExists(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
	EnsureDeleted(ctx context.Context) error

	Upsert(ctx context.Context, records ...TModel) ([]TKey, error)
	Get(ctx context.Context, keys ...TKey) ([]TModel, error)
	Delete(ctx context.Context, keys ...TKey) error

	Search(ctx context.Context, vector []float32, options SearchOptions) (Results[TModel], error)
}
