package vectorstore

import "fmt"

// DefaultTop is the result count used when SearchOptions leaves Top unset.
const DefaultTop = 3

// SearchOptions shape one similarity search.
type SearchOptions struct {
	// Top is the number of matches to return; zero means DefaultTop.
	Top int

	// Skip offsets into the ranked results for paging.
	Skip int

	// IncludeVectors asks the store to return the stored embeddings.
	IncludeVectors bool

	// IncludeTotalCount asks for Results.Total to be populated.
	IncludeTotalCount bool

	// VectorField names the vector field to search, by storage name. Empty
	// picks the sole vector field.
	VectorField string

	// KeywordField names the full-text field for keyword-hybrid search, by
	// storage name. Ignored by plain vector search.
	KeywordField string

	// Filter restricts the candidate set before ranking.
	Filter Filter

	_ struct{}
}

// Validate checks the options against the definition and fills defaults.
func (o *SearchOptions) Validate(def Definition) error {
	if o.Top < 0 {
		return fmt.Errorf("%w: top must not be negative, got %d", ErrInvalidSearch, o.Top)
	}
	if o.Top == 0 {
		o.Top = DefaultTop
	}
	if o.Skip < 0 {
		return fmt.Errorf("%w: skip must not be negative, got %d", ErrInvalidSearch, o.Skip)
	}
	if _, err := def.VectorField(o.VectorField); err != nil {
		return err
	}
	if o.KeywordField != "" {
		field, ok := def.Field(o.KeywordField)
		if !ok {
			return fmt.Errorf("%w: keyword field %q", ErrUnknownField, o.KeywordField)
		}
		if !field.FullText {
			return fmt.Errorf("%w: keyword field %q is not full-text indexed", ErrInvalidSearch, o.KeywordField)
		}
	}
	return ValidateFilter(o.Filter, def)
}

// Match is one search hit.
type Match[T any] struct {
	Record T
	Score  float64
}

// Results is a ranked result page. Total is only populated when
// IncludeTotalCount was set.
type Results[T any] struct {
	Items []Match[T]
	Total int64
}
