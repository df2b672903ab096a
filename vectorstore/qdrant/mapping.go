package qdrant

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/quayside/gangway/vectorstore"
)

func vectorParams(field vectorstore.Field) (*qdrant.VectorParams, error) {
	distance, err := distanceOf(field.Distance)
	if err != nil {
		return nil, err
	}
	// Qdrant always builds an HNSW graph; there is no flat mode to map to.
	switch field.Index {
	case vectorstore.IndexDefault, vectorstore.IndexHNSW:
	default:
		return nil, fmt.Errorf("%w: %q on field %q", vectorstore.ErrUnsupportedIndex, field.Index, field.StorageName)
	}
	return &qdrant.VectorParams{
		Size:     uint64(field.Dimensions),
		Distance: distance,
	}, nil
}

func distanceOf(distance vectorstore.DistanceFunction) (qdrant.Distance, error) {
	switch distance {
	case vectorstore.DistanceDefault, vectorstore.DistanceCosine:
		return qdrant.Distance_Cosine, nil
	case vectorstore.DistanceDot:
		return qdrant.Distance_Dot, nil
	case vectorstore.DistanceEuclidean:
		return qdrant.Distance_Euclid, nil
	case vectorstore.DistanceManhattan:
		return qdrant.Distance_Manhattan, nil
	default:
		return qdrant.Distance_Cosine, fmt.Errorf("%w: %q", vectorstore.ErrUnsupportedDistance, distance)
	}
}

// pointID turns a record key into a Qdrant point ID. Qdrant only accepts
// unsigned numbers and UUIDs as IDs.
func pointID(key any) (*qdrant.PointId, error) {
	switch k := key.(type) {
	case uint64:
		return qdrant.NewIDNum(k), nil
	case uint:
		return qdrant.NewIDNum(uint64(k)), nil
	case uint32:
		return qdrant.NewIDNum(uint64(k)), nil
	case int:
		if k < 0 {
			return nil, fmt.Errorf("%w: negative key %d", vectorstore.ErrInvalidModel, k)
		}
		return qdrant.NewIDNum(uint64(k)), nil
	case int64:
		if k < 0 {
			return nil, fmt.Errorf("%w: negative key %d", vectorstore.ErrInvalidModel, k)
		}
		return qdrant.NewIDNum(uint64(k)), nil
	case string:
		if _, err := uuid.Parse(k); err != nil {
			return nil, fmt.Errorf("%w: string keys must be UUIDs, got %q", vectorstore.ErrInvalidModel, k)
		}
		return qdrant.NewID(k), nil
	case uuid.UUID:
		return qdrant.NewID(k.String()), nil
	default:
		return nil, fmt.Errorf("%w: cannot use %T as a point ID", vectorstore.ErrInvalidModel, key)
	}
}

func pointIDValue(id *qdrant.PointId) (any, error) {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return v.Num, nil
	case *qdrant.PointId_Uuid:
		return v.Uuid, nil
	default:
		return nil, fmt.Errorf("point has no ID")
	}
}

func (c *Collection[TKey, TModel]) toPoint(record TModel) (*qdrant.PointStruct, TKey, error) {
	var zero TKey

	values, err := c.mapper.ToStorage(record)
	if err != nil {
		return nil, zero, err
	}

	keyField := c.def.Key()
	rawKey := values[keyField.StorageName]
	key, ok := rawKey.(TKey)
	if !ok {
		return nil, zero, fmt.Errorf("%w: key field %q is %T, not %T",
			vectorstore.ErrInvalidModel, keyField.StorageName, rawKey, zero)
	}
	id, err := pointID(rawKey)
	if err != nil {
		return nil, zero, err
	}

	payload := make(map[string]any)
	for _, field := range c.def.DataFields() {
		payload[field.StorageName] = values[field.StorageName]
	}

	vectors, err := c.toVectors(values)
	if err != nil {
		return nil, zero, err
	}

	return &qdrant.PointStruct{
		Id:      id,
		Payload: qdrant.NewValueMap(payload),
		Vectors: vectors,
	}, key, nil
}

func (c *Collection[TKey, TModel]) toVectors(values map[string]any) (*qdrant.Vectors, error) {
	fields := c.def.VectorFields()

	vectorOf := func(field vectorstore.Field) ([]float32, error) {
		vec, ok := values[field.StorageName].([]float32)
		if !ok {
			return nil, fmt.Errorf("%w: vector field %q is %T", vectorstore.ErrInvalidModel,
				field.StorageName, values[field.StorageName])
		}
		return vec, nil
	}

	if !c.settings.NamedVectors {
		vec, err := vectorOf(fields[0])
		if err != nil {
			return nil, err
		}
		return qdrant.NewVectors(vec...), nil
	}

	named := make(map[string]*qdrant.Vector, len(fields))
	for _, field := range fields {
		vec, err := vectorOf(field)
		if err != nil {
			return nil, err
		}
		named[field.StorageName] = qdrant.NewVector(vec...)
	}
	return qdrant.NewVectorsMap(named), nil
}

// fromPoint rebuilds a record from a retrieved or scored point. Both carry
// the same ID, payload and vector output shapes.
func (c *Collection[TKey, TModel]) fromPoint(id *qdrant.PointId, payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput) (TModel, error) {
	var record TModel

	key, err := pointIDValue(id)
	if err != nil {
		return record, err
	}

	values := make(map[string]any, len(c.def.Fields))
	values[c.def.Key().StorageName] = key
	for _, field := range c.def.DataFields() {
		if value, ok := payload[field.StorageName]; ok {
			values[field.StorageName] = valueToAny(value)
		}
	}

	if vectors != nil {
		if named := vectors.GetVectors(); named != nil {
			for name, out := range named.GetVectors() {
				values[name] = out.GetData()
			}
		} else if single := vectors.GetVector(); single != nil {
			fields := c.def.VectorFields()
			if len(fields) == 1 {
				values[fields[0].StorageName] = single.GetData()
			}
		}
	}

	return c.mapper.FromStorage(values)
}

func valueToAny(value *qdrant.Value) any {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			items = append(items, valueToAny(item))
		}
		return items
	case *qdrant.Value_StructValue:
		fields := make(map[string]any, len(kind.StructValue.GetFields()))
		for name, field := range kind.StructValue.GetFields() {
			fields[name] = valueToAny(field)
		}
		return fields
	default:
		return nil
	}
}

// translateFilter lowers a filter tree into Qdrant filter conditions.
func translateFilter(f vectorstore.Filter) (*qdrant.Filter, error) {
	if f == nil {
		return nil, nil
	}

	switch clause := f.(type) {
	case vectorstore.Conjunction:
		conditions, err := translateClauses(clause.Clauses)
		if err != nil {
			return nil, err
		}
		return &qdrant.Filter{Must: conditions}, nil
	case vectorstore.Disjunction:
		conditions, err := translateClauses(clause.Clauses)
		if err != nil {
			return nil, err
		}
		return &qdrant.Filter{Should: conditions}, nil
	case vectorstore.Negation:
		condition, err := translateClause(clause.Clause)
		if err != nil {
			return nil, err
		}
		return &qdrant.Filter{MustNot: []*qdrant.Condition{condition}}, nil
	default:
		condition, err := translateClause(f)
		if err != nil {
			return nil, err
		}
		return &qdrant.Filter{Must: []*qdrant.Condition{condition}}, nil
	}
}

func translateClauses(clauses []vectorstore.Filter) ([]*qdrant.Condition, error) {
	conditions := make([]*qdrant.Condition, 0, len(clauses))
	for _, clause := range clauses {
		condition, err := translateClause(clause)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)
	}
	return conditions, nil
}

func translateClause(f vectorstore.Filter) (*qdrant.Condition, error) {
	switch clause := f.(type) {
	case vectorstore.Comparison:
		return comparisonCondition(clause)
	case vectorstore.Membership:
		condition, err := membershipCondition(clause)
		if err != nil {
			return nil, err
		}
		if clause.Negated {
			return qdrant.NewFilterAsCondition(&qdrant.Filter{
				MustNot: []*qdrant.Condition{condition},
			}), nil
		}
		return condition, nil
	case vectorstore.Conjunction, vectorstore.Disjunction, vectorstore.Negation:
		nested, err := translateFilter(f)
		if err != nil {
			return nil, err
		}
		return qdrant.NewFilterAsCondition(nested), nil
	default:
		return nil, fmt.Errorf("%w: unknown clause type %T", vectorstore.ErrInvalidFilter, f)
	}
}

func comparisonCondition(clause vectorstore.Comparison) (*qdrant.Condition, error) {
	switch clause.Op {
	case vectorstore.OpEqual:
		return matchCondition(clause.Field, clause.Value)
	case vectorstore.OpNotEqual:
		match, err := matchCondition(clause.Field, clause.Value)
		if err != nil {
			return nil, err
		}
		return qdrant.NewFilterAsCondition(&qdrant.Filter{
			MustNot: []*qdrant.Condition{match},
		}), nil
	case vectorstore.OpGreaterThan, vectorstore.OpGreaterThanOrEqual,
		vectorstore.OpLessThan, vectorstore.OpLessThanOrEqual:
		return rangeCondition(clause)
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", vectorstore.ErrInvalidFilter, clause.Op)
	}
}

func matchCondition(field string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatch(field, v), nil
	case bool:
		return qdrant.NewMatchBool(field, v), nil
	case int:
		return qdrant.NewMatchInt(field, int64(v)), nil
	case int32:
		return qdrant.NewMatchInt(field, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(field, v), nil
	case uint:
		return qdrant.NewMatchInt(field, int64(v)), nil
	case uint64:
		return qdrant.NewMatchInt(field, int64(v)), nil
	case float32:
		// floats have no keyword match; equality becomes a closed range
		bound := float64(v)
		return qdrant.NewRange(field, &qdrant.Range{Gte: &bound, Lte: &bound}), nil
	case float64:
		return qdrant.NewRange(field, &qdrant.Range{Gte: &v, Lte: &v}), nil
	default:
		return nil, fmt.Errorf("%w: cannot match on %T", vectorstore.ErrInvalidFilter, value)
	}
}

func rangeCondition(clause vectorstore.Comparison) (*qdrant.Condition, error) {
	bound, err := toFloat(clause.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", vectorstore.ErrInvalidFilter, clause.Field, err)
	}

	rng := &qdrant.Range{}
	switch clause.Op {
	case vectorstore.OpGreaterThan:
		rng.Gt = &bound
	case vectorstore.OpGreaterThanOrEqual:
		rng.Gte = &bound
	case vectorstore.OpLessThan:
		rng.Lt = &bound
	case vectorstore.OpLessThanOrEqual:
		rng.Lte = &bound
	}
	return qdrant.NewRange(clause.Field, rng), nil
}

func membershipCondition(clause vectorstore.Membership) (*qdrant.Condition, error) {
	if len(clause.Values) == 0 {
		return nil, fmt.Errorf("%w: membership on field %q needs values", vectorstore.ErrInvalidFilter, clause.Field)
	}

	switch clause.Values[0].(type) {
	case string:
		keywords := make([]string, 0, len(clause.Values))
		for _, value := range clause.Values {
			keyword, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: mixed value types in membership on %q", vectorstore.ErrInvalidFilter, clause.Field)
			}
			keywords = append(keywords, keyword)
		}
		return qdrant.NewMatchKeywords(clause.Field, keywords...), nil
	case int, int32, int64, uint, uint64:
		ints := make([]int64, 0, len(clause.Values))
		for _, value := range clause.Values {
			n, err := toInt(value)
			if err != nil {
				return nil, fmt.Errorf("%w: mixed value types in membership on %q", vectorstore.ErrInvalidFilter, clause.Field)
			}
			ints = append(ints, n)
		}
		return qdrant.NewMatchInts(clause.Field, ints...), nil
	default:
		return nil, fmt.Errorf("%w: membership values must be strings or integers, got %T",
			vectorstore.ErrInvalidFilter, clause.Values[0])
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%T is not numeric", value)
	}
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%T is not an integer", value)
	}
}
