package redis

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/quayside/gangway/pkg/vecx"
	"github.com/quayside/gangway/vectorstore"
)

type collectionSettings struct {
	// JSONDocuments stores records as RedisJSON documents instead of
	// hashes.
	JSONDocuments bool
}

// Option configures a collection handle during construction.
type Option = opts.Option[collectionSettings]

// JSONDocuments switches storage from hashes to RedisJSON documents.
var JSONDocuments = opts.ForName[collectionSettings, bool]("JSONDocuments")

// Collection is a typed handle on one RediSearch index and its records.
// Record keys are prefixed with the collection name in Redis, so the index
// only matches its own documents.
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

	var settings collectionSettings
	if err := opts.Apply(&settings, options); err != nil {
		return nil, err
	}

	return &Collection[TKey, TModel]{
		store:    store,
		name:     name,
		def:      def,
		mapper:   mapper,
		settings: settings,
	}, nil
}

// Name returns the collection name, which is also the index name.
func (c *Collection[TKey, TModel]) Name() string { return c.name }

// EnsureExists creates the search index when it is missing.
func (c *Collection[TKey, TModel]) EnsureExists(ctx context.Context) error {
	exists, err := c.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	schema, err := buildSchema(c.def, c.settings.JSONDocuments)
	if err != nil {
		return err
	}

	createOptions := &redis.FTCreateOptions{
		Prefix: []interface{}{c.name + ":"},
	}
	if c.settings.JSONDocuments {
		createOptions.OnJSON = true
	} else {
		createOptions.OnHash = true
	}

	if err := c.store.client.FTCreate(ctx, c.name, createOptions, schema...).Err(); err != nil {
		return c.wrap("create", err)
	}
	return nil
}

// Exists probes the index with FT.INFO. The server answers an unknown
// index with an error, so any error reads as absent.
func (c *Collection[TKey, TModel]) Exists(ctx context.Context) (bool, error) {
	if _, err := c.store.client.FTInfo(ctx, c.name).Result(); err != nil {
		return false, nil
	}
	return true, nil
}

// EnsureDeleted drops the index and its documents when it exists.
func (c *Collection[TKey, TModel]) EnsureDeleted(ctx context.Context) error {
	exists, err := c.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := c.store.client.FTDropIndexWithArgs(ctx, c.name, &redis.FTDropIndexOptions{
		DeleteDocs: true,
	}).Err(); err != nil {
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
	pipe := c.store.client.Pipeline()
	for _, record := range records {
		values, err := c.mapper.ToStorage(record)
		if err != nil {
			return nil, c.wrap("upsert", err)
		}
		key, err := c.recordKey(values)
		if err != nil {
			return nil, c.wrap("upsert", err)
		}
		keys = append(keys, key)

		if c.settings.JSONDocuments {
			pipe.JSONSet(ctx, c.redisKey(key), "$", c.jsonDocument(values))
		} else {
			pipe.HSet(ctx, c.redisKey(key), c.hashFields(values))
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
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
	if c.settings.JSONDocuments {
		return c.getJSON(ctx, keys)
	}
	return c.getHash(ctx, keys)
}

func (c *Collection[TKey, TModel]) getHash(ctx context.Context, keys []TKey) ([]TModel, error) {
	pipe := c.store.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(keys))
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, c.redisKey(key))
		cmds = append(cmds, pipe.HGetAll(ctx, c.redisKey(key)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, c.wrap("get", err)
	}

	records := make([]TModel, 0, len(keys))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		record, err := c.fromHash(redisKeys[i], fields, true)
		if err != nil {
			return nil, c.wrap("get", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (c *Collection[TKey, TModel]) getJSON(ctx context.Context, keys []TKey) ([]TModel, error) {
	pipe := c.store.client.Pipeline()
	cmds := make([]*redis.JSONCmd, 0, len(keys))
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, c.redisKey(key))
		cmds = append(cmds, pipe.JSONGet(ctx, c.redisKey(key), "$"))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, c.wrap("get", err)
	}

	records := make([]TModel, 0, len(keys))
	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if err == redis.Nil || raw == "" {
			continue
		}
		if err != nil {
			return nil, c.wrap("get", err)
		}
		record, err := c.fromJSON(redisKeys[i], raw, true)
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
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, c.redisKey(key))
	}
	if err := c.store.client.Del(ctx, redisKeys...).Err(); err != nil {
		return c.wrap("delete", err)
	}
	return nil
}

// Search ranks records by similarity to the query vector with a KNN query.
// Scores are distances, so lower is closer.
func (c *Collection[TKey, TModel]) Search(ctx context.Context, vector []float32, options vectorstore.SearchOptions) (vectorstore.Results[TModel], error) {
	var results vectorstore.Results[TModel]

	if err := options.Validate(c.def); err != nil {
		return results, err
	}
	field, err := c.def.VectorField(options.VectorField)
	if err != nil {
		return results, err
	}

	// the KNN pool has to cover the page being skipped over
	query, err := knnQuery(options.Filter, c.def, field.StorageName, options.Top+options.Skip)
	if err != nil {
		return results, err
	}

	result, err := c.store.client.FTSearchWithArgs(ctx, c.name, query, &redis.FTSearchOptions{
		Params:         map[string]interface{}{"vector": vecx.ToBytes(vector)},
		DialectVersion: 2,
		SortBy:         []redis.FTSearchSortBy{{FieldName: scoreAlias, Asc: true}},
		LimitOffset:    options.Skip,
		Limit:          options.Top,
	}).Result()
	if err != nil {
		return results, c.wrap("search", err)
	}

	results.Items = make([]vectorstore.Match[TModel], 0, len(result.Docs))
	for _, doc := range result.Docs {
		score, err := strconv.ParseFloat(doc.Fields[scoreAlias], 64)
		if err != nil {
			return results, c.wrap("search", fmt.Errorf("document %s has no score: %v", doc.ID, err))
		}

		var record TModel
		if c.settings.JSONDocuments {
			record, err = c.fromJSON(doc.ID, doc.Fields["$"], options.IncludeVectors)
		} else {
			record, err = c.fromHash(doc.ID, doc.Fields, options.IncludeVectors)
		}
		if err != nil {
			return results, c.wrap("search", err)
		}

		results.Items = append(results.Items, vectorstore.Match[TModel]{Record: record, Score: score})
	}

	if options.IncludeTotalCount {
		results.Total = int64(result.Total)
	}
	return results, nil
}

func (c *Collection[TKey, TModel]) redisKey(key TKey) string {
	return fmt.Sprintf("%s:%v", c.name, key)
}

func (c *Collection[TKey, TModel]) recordKey(values map[string]any) (TKey, error) {
	var zero TKey
	keyField := c.def.Key()
	key, ok := values[keyField.StorageName].(TKey)
	if !ok {
		return zero, fmt.Errorf("%w: key field %q is %T, not %T",
			vectorstore.ErrInvalidModel, keyField.StorageName, values[keyField.StorageName], zero)
	}
	return key, nil
}

// hashFields flattens storage values for HSET. The key lives in the Redis
// key, not the hash; vectors are packed as little-endian float32 buffers.
func (c *Collection[TKey, TModel]) hashFields(values map[string]any) map[string]any {
	fields := make(map[string]any, len(values))
	for _, field := range c.def.DataFields() {
		fields[field.StorageName] = values[field.StorageName]
	}
	for _, field := range c.def.VectorFields() {
		if vec, ok := values[field.StorageName].([]float32); ok {
			fields[field.StorageName] = vecx.ToBytes(vec)
		}
	}
	return fields
}

func (c *Collection[TKey, TModel]) jsonDocument(values map[string]any) map[string]any {
	doc := make(map[string]any, len(values))
	for _, field := range c.def.DataFields() {
		doc[field.StorageName] = values[field.StorageName]
	}
	for _, field := range c.def.VectorFields() {
		doc[field.StorageName] = values[field.StorageName]
	}
	return doc
}

// fromHash rebuilds a record from the stringly typed hash fields.
func (c *Collection[TKey, TModel]) fromHash(redisKey string, fields map[string]string, includeVectors bool) (TModel, error) {
	var record TModel

	values := make(map[string]any, len(c.def.Fields))
	values[c.def.Key().StorageName] = c.parseKey(redisKey)

	for _, field := range c.def.DataFields() {
		raw, ok := fields[field.StorageName]
		if !ok {
			continue
		}
		value, err := parseHashValue(field, raw)
		if err != nil {
			return record, fmt.Errorf("field %s: %w", field.StorageName, err)
		}
		values[field.StorageName] = value
	}

	if includeVectors {
		for _, field := range c.def.VectorFields() {
			raw, ok := fields[field.StorageName]
			if !ok {
				continue
			}
			vec, err := vecx.FromBytes([]byte(raw))
			if err != nil {
				return record, fmt.Errorf("field %s: %w", field.StorageName, err)
			}
			values[field.StorageName] = vec
		}
	}

	return c.mapper.FromStorage(values)
}

// fromJSON rebuilds a record from a RedisJSON document. JSON.GET on the $
// path answers a single-element array, FT.SEARCH answers the bare object.
func (c *Collection[TKey, TModel]) fromJSON(redisKey, raw string, includeVectors bool) (TModel, error) {
	var record TModel

	trimmed := strings.TrimSpace(raw)
	var doc map[string]any
	if strings.HasPrefix(trimmed, "[") {
		var docs []map[string]any
		if err := json.Unmarshal([]byte(trimmed), &docs); err != nil {
			return record, err
		}
		if len(docs) == 0 {
			return record, fmt.Errorf("document %s is empty", redisKey)
		}
		doc = docs[0]
	} else if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return record, err
	}

	doc[c.def.Key().StorageName] = c.parseKey(redisKey)
	if !includeVectors {
		for _, field := range c.def.VectorFields() {
			delete(doc, field.StorageName)
		}
	}

	return c.mapper.FromStorage(doc)
}

// parseKey strips the collection prefix and converts the remainder to the
// key field's kind.
func (c *Collection[TKey, TModel]) parseKey(redisKey string) any {
	raw := strings.TrimPrefix(redisKey, c.name+":")
	if !c.def.Key().IsNumeric() {
		return raw
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if u, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return u
	}
	return raw
}

func parseHashValue(field vectorstore.Field, raw string) (any, error) {
	switch {
	case field.IsNumeric():
		return strconv.ParseFloat(raw, 64)
	case field.Kind == reflect.Bool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

func (c *Collection[TKey, TModel]) wrap(op string, err error) error {
	return &vectorstore.OpError{Op: op, Collection: c.name, Err: err}
}

var _ vectorstore.Collection[string, struct{}] = (*Collection[string, struct{}])(nil)
