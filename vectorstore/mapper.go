package vectorstore

import (
	"fmt"
	"reflect"
)

// Mapper converts records to and from the map[string]any form the adapters
// store, keyed by storage name.
type Mapper[T any] struct {
	def     Definition
	indexes map[string]int
}

// NewMapper builds a mapper for the record type against its definition. The
// definition usually comes from DefinitionOf[T].
func NewMapper[T any](def Definition) (*Mapper[T], error) {
	typ := reflect.TypeFor[T]()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidModel, typ)
	}

	indexes := make(map[string]int, len(def.Fields))
	for _, field := range def.Fields {
		sf, ok := typ.FieldByName(field.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field %s", ErrInvalidModel, typ, field.Name)
		}
		indexes[field.StorageName] = sf.Index[0]
	}
	return &Mapper[T]{def: def, indexes: indexes}, nil
}

// Definition returns the definition the mapper was built with.
func (m *Mapper[T]) Definition() Definition { return m.def }

// ToStorage flattens a record into storage-name keyed values. Vector fields
// come out as []float32.
func (m *Mapper[T]) ToStorage(record T) (map[string]any, error) {
	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil record", ErrInvalidModel)
		}
		rv = rv.Elem()
	}

	values := make(map[string]any, len(m.def.Fields))
	for _, field := range m.def.Fields {
		values[field.StorageName] = rv.Field(m.indexes[field.StorageName]).Interface()
	}
	return values, nil
}

// FromStorage rebuilds a record from storage values. Missing entries leave
// the zero value in place; numeric and vector values are converted from the
// loosely typed forms the stores hand back.
func (m *Mapper[T]) FromStorage(values map[string]any) (T, error) {
	var record T
	rv := reflect.ValueOf(&record).Elem()
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	for _, field := range m.def.Fields {
		raw, ok := values[field.StorageName]
		if !ok || raw == nil {
			continue
		}
		target := rv.Field(m.indexes[field.StorageName])
		if err := assign(target, raw); err != nil {
			return record, fmt.Errorf("field %s: %w", field.StorageName, err)
		}
	}
	return record, nil
}

func assign(target reflect.Value, raw any) error {
	value := reflect.ValueOf(raw)
	if value.Type() == target.Type() {
		target.Set(value)
		return nil
	}

	// vectors arrive as []float32, []float64 or []any depending on the store
	if target.Type() == reflect.TypeFor[[]float32]() {
		vec, err := toVector(raw)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(vec))
		return nil
	}

	if value.Type().ConvertibleTo(target.Type()) {
		// strings convert to numbers only through explicit parsing, never
		// through reflect conversion
		if value.Kind() == reflect.String && target.Kind() != reflect.String {
			return fmt.Errorf("cannot assign %T to %s", raw, target.Type())
		}
		target.Set(value.Convert(target.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", raw, target.Type())
}

func toVector(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case []float32:
		return v, nil
	case []float64:
		vec := make([]float32, len(v))
		for i, f := range v {
			vec[i] = float32(f)
		}
		return vec, nil
	case []any:
		vec := make([]float32, len(v))
		for i, item := range v {
			f, ok := item.(float64)
			if !ok {
				return nil, fmt.Errorf("vector element %d is %T, not a number", i, item)
			}
			vec[i] = float32(f)
		}
		return vec, nil
	default:
		return nil, fmt.Errorf("cannot decode %T as a vector", raw)
	}
}
