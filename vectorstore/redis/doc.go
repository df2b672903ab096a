// Package redis implements the vectorstore contracts over RediSearch and
// RedisJSON.
//
// Records are stored as hashes by default, with vectors packed as
// little-endian float32 buffers; JSONDocuments(true) switches to RedisJSON
// documents. Each collection owns one search index whose documents are
// keyed "<collection>:<key>".
//
//	store := redis.New(redis.Config{Addr: "localhost:6379"})
//	hotels, err := redis.NewCollection[string, Hotel](store, "hotels")
//	err = hotels.EnsureExists(ctx)
//	keys, err := hotels.Upsert(ctx, seaside, harbor)
//	results, err := hotels.Search(ctx, embedding, vectorstore.SearchOptions{Top: 5})
//
// Search runs a KNN query with DIALECT 2; scores are distances, so lower
// is closer.
package redis
