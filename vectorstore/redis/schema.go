package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quayside/gangway/vectorstore"
)

// buildSchema lowers a definition into RediSearch field schemas. Only
// filterable and full-text data fields are indexed; everything else is
// stored but not searchable. JSON documents index paths and alias them
// back to the plain storage name.
func buildSchema(def vectorstore.Definition, jsonDocuments bool) ([]*redis.FieldSchema, error) {
	var schema []*redis.FieldSchema

	fieldName := func(storageName string) (string, string) {
		if jsonDocuments {
			return "$." + storageName, storageName
		}
		return storageName, ""
	}

	for _, field := range def.DataFields() {
		if !field.Filterable && !field.FullText {
			continue
		}
		name, alias := fieldName(field.StorageName)
		fs := &redis.FieldSchema{FieldName: name, As: alias}
		switch {
		case field.FullText:
			fs.FieldType = redis.SearchFieldTypeText
		case field.IsNumeric():
			fs.FieldType = redis.SearchFieldTypeNumeric
		default:
			fs.FieldType = redis.SearchFieldTypeTag
		}
		schema = append(schema, fs)
	}

	for _, field := range def.VectorFields() {
		name, alias := fieldName(field.StorageName)
		args, err := vectorArgs(field)
		if err != nil {
			return nil, err
		}
		schema = append(schema, &redis.FieldSchema{
			FieldName:  name,
			As:         alias,
			FieldType:  redis.SearchFieldTypeVector,
			VectorArgs: args,
		})
	}

	return schema, nil
}

func vectorArgs(field vectorstore.Field) (*redis.FTVectorArgs, error) {
	metric, err := distanceMetric(field.Distance)
	if err != nil {
		return nil, fmt.Errorf("%w on field %q", err, field.StorageName)
	}

	switch field.Index {
	case vectorstore.IndexDefault, vectorstore.IndexHNSW:
		return &redis.FTVectorArgs{HNSWOptions: &redis.FTHNSWOptions{
			Type:           "FLOAT32",
			Dim:            field.Dimensions,
			DistanceMetric: metric,
		}}, nil
	case vectorstore.IndexFlat:
		return &redis.FTVectorArgs{FlatOptions: &redis.FTFlatOptions{
			Type:           "FLOAT32",
			Dim:            field.Dimensions,
			DistanceMetric: metric,
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %q on field %q", vectorstore.ErrUnsupportedIndex, field.Index, field.StorageName)
	}
}

func distanceMetric(distance vectorstore.DistanceFunction) (string, error) {
	switch distance {
	case vectorstore.DistanceDefault, vectorstore.DistanceCosine:
		return "COSINE", nil
	case vectorstore.DistanceDot:
		return "IP", nil
	case vectorstore.DistanceEuclidean:
		return "L2", nil
	default:
		// RediSearch has no manhattan metric
		return "", fmt.Errorf("%w: %q", vectorstore.ErrUnsupportedDistance, distance)
	}
}
