package qdrant

import (
	"context"
	"fmt"

	"github.com/fogfish/opts"
	"github.com/qdrant/go-client/qdrant"

	"github.com/quayside/gangway/vectorstore"
)

type collectionSettings struct {
	// NamedVectors stores each vector field under its storage name. When
	// disabled the definition must have exactly one vector field, stored
	// unnamed.
	NamedVectors bool
}

// Option configures a collection handle during construction.
type Option = opts.Option[collectionSettings]

// NamedVectors toggles named-vector storage. It defaults to true.
var NamedVectors = opts.ForName[collectionSettings, bool]("NamedVectors")

// Collection is a typed handle on one Qdrant collection. TKey must be the
// type of the record's key field: an unsigned or non-negative integer for
// numeric point IDs, or a UUID string.
type Collection[TKey comparable, TModel any] struct {
	store    *Store
	name     string
	def      vectorstore.Definition
	mapper   *vectorstore.Mapper[TModel]
	settings collectionSettings
}

// NewCollection builds a collection handle for the record type. The
// definition is reflected from the record's vectorstore struct tags.
func NewCollection[TKey comparable, TModel any](store *Store, name string, options ...Option) (*Collection[TKey, TModel], error) {
	def, err := vectorstore.DefinitionOf[TModel]()
	if err != nil {
		return nil, err
	}
	mapper, err := vectorstore.NewMapper[TModel](def)
	if err != nil {
		return nil, err
	}

	settings := collectionSettings{NamedVectors: true}
	if err := opts.Apply(&settings, options); err != nil {
		return nil, err
	}
	if !settings.NamedVectors && len(def.VectorFields()) != 1 {
		return nil, fmt.Errorf("%w: unnamed vector storage needs exactly one vector field, got %d",
			vectorstore.ErrInvalidModel, len(def.VectorFields()))
	}

	return &Collection[TKey, TModel]{
		store:    store,
		name:     name,
		def:      def,
		mapper:   mapper,
		settings: settings,
	}, nil
}

// Name returns the collection name.
func (c *Collection[TKey, TModel]) Name() string { return c.name }

// EnsureExists creates the collection when it is missing, with one vector
// space per vector field in the definition.
func (c *Collection[TKey, TModel]) EnsureExists(ctx context.Context) error {
	exists, err := c.store.client.CollectionExists(ctx, c.name)
	if err != nil {
		return c.wrap("ensure exists", err)
	}
	if exists {
		return nil
	}

	config, err := c.vectorsConfig()
	if err != nil {
		return err
	}
	if err := c.store.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.name,
		VectorsConfig:  config,
	}); err != nil {
		return c.wrap("create", err)
	}
	return nil
}

func (c *Collection[TKey, TModel]) vectorsConfig() (*qdrant.VectorsConfig, error) {
	fields := c.def.VectorFields()
	if c.settings.NamedVectors {
		params := make(map[string]*qdrant.VectorParams, len(fields))
		for _, field := range fields {
			vp, err := vectorParams(field)
			if err != nil {
				return nil, err
			}
			params[field.StorageName] = vp
		}
		return qdrant.NewVectorsConfigMap(params), nil
	}

	vp, err := vectorParams(fields[0])
	if err != nil {
		return nil, err
	}
	return qdrant.NewVectorsConfig(vp), nil
}

// Exists reports whether the collection exists on the server.
func (c *Collection[TKey, TModel]) Exists(ctx context.Context) (bool, error) {
	exists, err := c.store.client.CollectionExists(ctx, c.name)
	if err != nil {
		return false, c.wrap("exists", err)
	}
	return exists, nil
}

// EnsureDeleted drops the collection when it exists.
func (c *Collection[TKey, TModel]) EnsureDeleted(ctx context.Context) error {
	exists, err := c.store.client.CollectionExists(ctx, c.name)
	if err != nil {
		return c.wrap("ensure deleted", err)
	}
	if !exists {
		return nil
	}
	if err := c.store.client.DeleteCollection(ctx, c.name); err != nil {
		return c.wrap("delete collection", err)
	}
	return nil
}

// Upsert writes the records and returns their keys in input order.
func (c *Collection[TKey, TModel]) Upsert(ctx context.Context, records ...TModel) ([]TKey, error) {
	if len(records) == 0 {
		return nil, nil
	}

	keys := make([]TKey, 0, len(records))
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, record := range records {
		point, key, err := c.toPoint(record)
		if err != nil {
			return nil, c.wrap("upsert", err)
		}
		points = append(points, point)
		keys = append(keys, key)
	}

	if _, err := c.store.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.name,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	}); err != nil {
		return nil, c.wrap("upsert", err)
	}
	return keys, nil
}

// Get retrieves records by key. Missing keys are silently absent from the
// result.
func (c *Collection[TKey, TModel]) Get(ctx context.Context, keys ...TKey) ([]TModel, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	ids, err := c.pointIDs(keys)
	if err != nil {
		return nil, c.wrap("get", err)
	}

	points, err := c.store.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.name,
		Ids:            ids,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, c.wrap("get", err)
	}

	records := make([]TModel, 0, len(points))
	for _, point := range points {
		record, err := c.fromPoint(point.GetId(), point.GetPayload(), point.GetVectors())
		if err != nil {
			return nil, c.wrap("get", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes records by key.
func (c *Collection[TKey, TModel]) Delete(ctx context.Context, keys ...TKey) error {
	if len(keys) == 0 {
		return nil
	}

	ids, err := c.pointIDs(keys)
	if err != nil {
		return c.wrap("delete", err)
	}

	if _, err := c.store.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.name,
		Points:         qdrant.NewPointsSelector(ids...),
		Wait:           qdrant.PtrOf(true),
	}); err != nil {
		return c.wrap("delete", err)
	}
	return nil
}

// Search ranks records by similarity to the query vector.
func (c *Collection[TKey, TModel]) Search(ctx context.Context, vector []float32, options vectorstore.SearchOptions) (vectorstore.Results[TModel], error) {
	var results vectorstore.Results[TModel]

	if err := options.Validate(c.def); err != nil {
		return results, err
	}
	filter, err := translateFilter(options.Filter)
	if err != nil {
		return results, err
	}

	query := &qdrant.QueryPoints{
		CollectionName: c.name,
		Query:          qdrant.NewQueryDense(vector),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(options.Top)),
		Offset:         qdrant.PtrOf(uint64(options.Skip)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(options.IncludeVectors),
	}
	if c.settings.NamedVectors {
		field, err := c.def.VectorField(options.VectorField)
		if err != nil {
			return results, err
		}
		query.Using = qdrant.PtrOf(field.StorageName)
	}

	return c.runQuery(ctx, query, filter, options)
}

// HybridSearch fuses vector similarity with keyword matching over the
// full-text field using reciprocal rank fusion. The keyword field comes
// from options.KeywordField, or the definition's sole full-text field.
func (c *Collection[TKey, TModel]) HybridSearch(ctx context.Context, vector []float32, keywords []string, options vectorstore.SearchOptions) (vectorstore.Results[TModel], error) {
	var results vectorstore.Results[TModel]

	if err := options.Validate(c.def); err != nil {
		return results, err
	}
	if len(keywords) == 0 {
		return results, fmt.Errorf("%w: hybrid search needs at least one keyword", vectorstore.ErrInvalidSearch)
	}
	keywordField, err := c.keywordField(options.KeywordField)
	if err != nil {
		return results, err
	}
	vectorField, err := c.def.VectorField(options.VectorField)
	if err != nil {
		return results, err
	}
	filter, err := translateFilter(options.Filter)
	if err != nil {
		return results, err
	}

	prefetchLimit := qdrant.PtrOf(uint64(options.Top + options.Skip))

	vectorBranch := &qdrant.PrefetchQuery{
		Query:  qdrant.NewQueryDense(vector),
		Filter: filter,
		Limit:  prefetchLimit,
	}
	if c.settings.NamedVectors {
		vectorBranch.Using = qdrant.PtrOf(vectorField.StorageName)
	}

	keywordConditions := []*qdrant.Condition{qdrant.NewMatchKeywords(keywordField, keywords...)}
	if filter != nil {
		keywordConditions = append(keywordConditions, qdrant.NewFilterAsCondition(filter))
	}
	keywordBranch := &qdrant.PrefetchQuery{
		Filter: &qdrant.Filter{Must: keywordConditions},
		Limit:  prefetchLimit,
	}

	query := &qdrant.QueryPoints{
		CollectionName: c.name,
		Prefetch:       []*qdrant.PrefetchQuery{vectorBranch, keywordBranch},
		Query:          qdrant.NewQueryFusion(qdrant.Fusion_RRF),
		Limit:          qdrant.PtrOf(uint64(options.Top)),
		Offset:         qdrant.PtrOf(uint64(options.Skip)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(options.IncludeVectors),
	}

	return c.runQuery(ctx, query, filter, options)
}

func (c *Collection[TKey, TModel]) runQuery(ctx context.Context, query *qdrant.QueryPoints, filter *qdrant.Filter, options vectorstore.SearchOptions) (vectorstore.Results[TModel], error) {
	var results vectorstore.Results[TModel]

	points, err := c.store.client.Query(ctx, query)
	if err != nil {
		return results, c.wrap("search", err)
	}

	results.Items = make([]vectorstore.Match[TModel], 0, len(points))
	for _, point := range points {
		record, err := c.fromPoint(point.GetId(), point.GetPayload(), point.GetVectors())
		if err != nil {
			return results, c.wrap("search", err)
		}
		results.Items = append(results.Items, vectorstore.Match[TModel]{
			Record: record,
			Score:  float64(point.GetScore()),
		})
	}

	if options.IncludeTotalCount {
		count, err := c.store.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: c.name,
			Filter:         filter,
			Exact:          qdrant.PtrOf(true),
		})
		if err != nil {
			return results, c.wrap("count", err)
		}
		results.Total = int64(count)
	}
	return results, nil
}

func (c *Collection[TKey, TModel]) keywordField(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	var fulltext []string
	for _, field := range c.def.DataFields() {
		if field.FullText {
			fulltext = append(fulltext, field.StorageName)
		}
	}
	if len(fulltext) != 1 {
		return "", fmt.Errorf("%w: definition has %d full-text fields, name one", vectorstore.ErrInvalidSearch, len(fulltext))
	}
	return fulltext[0], nil
}

func (c *Collection[TKey, TModel]) pointIDs(keys []TKey) ([]*qdrant.PointId, error) {
	ids := make([]*qdrant.PointId, 0, len(keys))
	for _, key := range keys {
		id, err := pointID(key)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Collection[TKey, TModel]) wrap(op string, err error) error {
	return &vectorstore.OpError{Op: op, Collection: c.name, Err: err}
}

var _ vectorstore.Collection[string, struct{}] = (*Collection[string, struct{}])(nil)
