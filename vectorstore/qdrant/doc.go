// Package qdrant implements the vectorstore contracts over the Qdrant gRPC
// API.
//
// Collections store each vector field under its storage name by default;
// NamedVectors(false) switches to a single unnamed vector space. Record
// keys become point IDs, so they must be unsigned integers or UUID strings.
//
//	store, err := qdrant.New(qdrant.Config{Host: "localhost", Port: 6334})
//	hotels, err := qdrant.NewCollection[uint64, Hotel](store, "hotels")
//	err = hotels.EnsureExists(ctx)
//	keys, err := hotels.Upsert(ctx, seaside, harbor)
//	results, err := hotels.Search(ctx, embedding, vectorstore.SearchOptions{Top: 5})
//
// HybridSearch fuses vector similarity with keyword matching over the
// full-text field using reciprocal rank fusion.
package qdrant
