package vectorstore

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FieldRole classifies a record field.
type FieldRole string

const (
	// RoleKey marks the record identifier. Exactly one per definition.
	RoleKey FieldRole = "key"
	// RoleData marks a payload field.
	RoleData FieldRole = "data"
	// RoleVector marks an embedding field.
	RoleVector FieldRole = "vector"
)

// DistanceFunction selects the similarity metric for a vector field.
type DistanceFunction string

const (
	DistanceDefault   DistanceFunction = ""
	DistanceCosine    DistanceFunction = "cosine"
	DistanceDot       DistanceFunction = "dot"
	DistanceEuclidean DistanceFunction = "euclidean"
	DistanceManhattan DistanceFunction = "manhattan"
)

// IndexKind selects the ANN index structure for a vector field.
type IndexKind string

const (
	IndexDefault IndexKind = ""
	IndexHNSW    IndexKind = "hnsw"
	IndexFlat    IndexKind = "flat"
)

// Field describes one record field as the adapters see it.
type Field struct {
	// Name is the Go struct field name.
	Name string

	// StorageName is the name used in the store, from the json tag or the
	// Go field name.
	StorageName string

	Role FieldRole

	// Kind is the Go kind of the field; vector fields are always
	// reflect.Slice over float32.
	Kind reflect.Kind

	// Vector attributes.
	Dimensions int
	Distance   DistanceFunction
	Index      IndexKind

	// Data attributes.
	Filterable bool
	FullText   bool
}

// IsNumeric reports whether the field holds a number.
func (f Field) IsNumeric() bool {
	switch f.Kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// Definition is the ordered field list backing one collection.
type Definition struct {
	Fields []Field
}

// Key returns the key field. Validate guarantees there is exactly one.
func (d Definition) Key() Field {
	for _, f := range d.Fields {
		if f.Role == RoleKey {
			return f
		}
	}
	return Field{}
}

// VectorFields returns the vector fields in declaration order.
func (d Definition) VectorFields() []Field {
	var fields []Field
	for _, f := range d.Fields {
		if f.Role == RoleVector {
			fields = append(fields, f)
		}
	}
	return fields
}

// DataFields returns the payload fields in declaration order.
func (d Definition) DataFields() []Field {
	var fields []Field
	for _, f := range d.Fields {
		if f.Role == RoleData {
			fields = append(fields, f)
		}
	}
	return fields
}

// Field looks a field up by storage name.
func (d Definition) Field(storageName string) (Field, bool) {
	for _, f := range d.Fields {
		if f.StorageName == storageName {
			return f, true
		}
	}
	return Field{}, false
}

// VectorField resolves a vector field by storage name; the empty name picks
// the sole vector field when there is exactly one.
func (d Definition) VectorField(storageName string) (Field, error) {
	vectors := d.VectorFields()
	if storageName == "" {
		if len(vectors) != 1 {
			return Field{}, fmt.Errorf("%w: definition has %d vector fields, name one", ErrUnknownField, len(vectors))
		}
		return vectors[0], nil
	}
	for _, f := range vectors {
		if f.StorageName == storageName {
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("%w: vector field %q", ErrUnknownField, storageName)
}

// Validate checks the definition invariants: exactly one key, unique storage
// names, positive vector dimensions, known distance and index kinds.
func (d Definition) Validate() error {
	if len(d.Fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidModel)
	}

	var keys int
	seen := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if f.StorageName == "" {
			return fmt.Errorf("%w: field %s has no storage name", ErrInvalidModel, f.Name)
		}
		if _, dup := seen[f.StorageName]; dup {
			return fmt.Errorf("%w: duplicate storage name %q", ErrInvalidModel, f.StorageName)
		}
		seen[f.StorageName] = struct{}{}

		switch f.Role {
		case RoleKey:
			keys++
		case RoleData:
		case RoleVector:
			if f.Dimensions <= 0 {
				return fmt.Errorf("%w: vector field %q needs positive dimensions", ErrInvalidModel, f.StorageName)
			}
			switch f.Distance {
			case DistanceDefault, DistanceCosine, DistanceDot, DistanceEuclidean, DistanceManhattan:
			default:
				return fmt.Errorf("%w: %q on field %q", ErrUnsupportedDistance, f.Distance, f.StorageName)
			}
			switch f.Index {
			case IndexDefault, IndexHNSW, IndexFlat:
			default:
				return fmt.Errorf("%w: %q on field %q", ErrUnsupportedIndex, f.Index, f.StorageName)
			}
		default:
			return fmt.Errorf("%w: field %q has unknown role %q", ErrInvalidModel, f.StorageName, f.Role)
		}
	}
	if keys != 1 {
		return fmt.Errorf("%w: need exactly one key field, got %d", ErrInvalidModel, keys)
	}
	return nil
}

// DefinitionOf reflects a record type's vectorstore struct tags into a
// validated Definition.
//
// Tag grammar:
//
//	vectorstore:"key"
//	vectorstore:"data,filterable,fulltext"
//	vectorstore:"vector,dim=1536,distance=cosine,index=hnsw"
//
// Untagged fields are not stored.
func DefinitionOf[T any]() (Definition, error) {
	typ := reflect.TypeFor[T]()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return Definition{}, fmt.Errorf("%w: %s is not a struct", ErrInvalidModel, typ)
	}

	var def Definition
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup("vectorstore")
		if !ok || tag == "" || tag == "-" {
			continue
		}

		field, err := parseFieldTag(sf, tag)
		if err != nil {
			return Definition{}, err
		}
		def.Fields = append(def.Fields, field)
	}

	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func parseFieldTag(sf reflect.StructField, tag string) (Field, error) {
	parts := strings.Split(tag, ",")
	field := Field{
		Name:        sf.Name,
		StorageName: storageName(sf),
		Role:        FieldRole(parts[0]),
		Kind:        sf.Type.Kind(),
	}

	switch field.Role {
	case RoleKey, RoleData:
		for _, opt := range parts[1:] {
			switch opt {
			case "filterable":
				field.Filterable = true
			case "fulltext":
				field.FullText = true
			default:
				return Field{}, fmt.Errorf("%w: field %s has unknown option %q", ErrInvalidModel, sf.Name, opt)
			}
		}
	case RoleVector:
		if sf.Type != reflect.TypeFor[[]float32]() {
			return Field{}, fmt.Errorf("%w: vector field %s must be []float32, got %s", ErrInvalidModel, sf.Name, sf.Type)
		}
		for _, opt := range parts[1:] {
			key, value, found := strings.Cut(opt, "=")
			if !found {
				return Field{}, fmt.Errorf("%w: field %s has malformed option %q", ErrInvalidModel, sf.Name, opt)
			}
			switch key {
			case "dim":
				dim, err := strconv.Atoi(value)
				if err != nil {
					return Field{}, fmt.Errorf("%w: field %s has invalid dim %q", ErrInvalidModel, sf.Name, value)
				}
				field.Dimensions = dim
			case "distance":
				field.Distance = DistanceFunction(value)
			case "index":
				field.Index = IndexKind(value)
			default:
				return Field{}, fmt.Errorf("%w: field %s has unknown option %q", ErrInvalidModel, sf.Name, opt)
			}
		}
	default:
		return Field{}, fmt.Errorf("%w: field %s has unknown role %q", ErrInvalidModel, sf.Name, parts[0])
	}

	return field, nil
}

func storageName(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}
