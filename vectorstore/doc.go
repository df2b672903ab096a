// Package vectorstore defines the record model shared by the vector store
// connectors: struct-tag driven collection definitions, a reflection mapper
// between Go records and storage maps, an explicit filter tree, and the
// Store/Collection contracts the adapters implement.
//
// A record is a plain Go struct whose fields are annotated with the
// vectorstore tag:
//
//	type Hotel struct {
//		ID          string    `json:"id" vectorstore:"key"`
//		Name        string    `json:"name" vectorstore:"data,filterable,fulltext"`
//		Rating      float64   `json:"rating" vectorstore:"data,filterable"`
//		Description []float32 `json:"description" vectorstore:"vector,dim=1536,distance=cosine,index=hnsw"`
//	}
//
// DefinitionOf reflects the tags into a Definition; a Mapper moves records
// in and out of the map[string]any form the adapters store. Storage names
// come from the json tag and fall back to the Go field name.
//
// Filters are built explicitly instead of parsed from expressions:
//
//	filter := vectorstore.And(
//		vectorstore.Equal("name", "Grand Hotel"),
//		vectorstore.GreaterThanOrEqual("rating", 4.0),
//	)
//
// Adapters translate the tree into their native query forms (Qdrant filter
// conditions, RediSearch query syntax).
package vectorstore
