package vectorstore

import "fmt"

// CompareOp is a comparison operator in a filter clause.
type CompareOp string

const (
	OpEqual              CompareOp = "eq"
	OpNotEqual           CompareOp = "ne"
	OpGreaterThan        CompareOp = "gt"
	OpGreaterThanOrEqual CompareOp = "gte"
	OpLessThan           CompareOp = "lt"
	OpLessThanOrEqual    CompareOp = "lte"
)

// Filter is one node of a filter tree. Adapters switch over the concrete
// types: Comparison, Membership, Conjunction, Disjunction, Negation.
type Filter interface {
	filter()
}

// Comparison compares a field against a single value.
type Comparison struct {
	Field string
	Op    CompareOp
	Value any
}

// Membership tests a field against a value set.
type Membership struct {
	Field   string
	Negated bool
	Values  []any
}

// Conjunction requires all clauses to match.
type Conjunction struct {
	Clauses []Filter
}

// Disjunction requires at least one clause to match.
type Disjunction struct {
	Clauses []Filter
}

// Negation inverts a clause.
type Negation struct {
	Clause Filter
}

func (Comparison) filter()  {}
func (Membership) filter()  {}
func (Conjunction) filter() {}
func (Disjunction) filter() {}
func (Negation) filter()    {}

// Equal matches records where the field equals the value.
func Equal(field string, value any) Filter {
	return Comparison{Field: field, Op: OpEqual, Value: value}
}

// NotEqual matches records where the field differs from the value.
func NotEqual(field string, value any) Filter {
	return Comparison{Field: field, Op: OpNotEqual, Value: value}
}

// GreaterThan matches numeric fields above the value.
func GreaterThan(field string, value any) Filter {
	return Comparison{Field: field, Op: OpGreaterThan, Value: value}
}

// GreaterThanOrEqual matches numeric fields at or above the value.
func GreaterThanOrEqual(field string, value any) Filter {
	return Comparison{Field: field, Op: OpGreaterThanOrEqual, Value: value}
}

// LessThan matches numeric fields below the value.
func LessThan(field string, value any) Filter {
	return Comparison{Field: field, Op: OpLessThan, Value: value}
}

// LessThanOrEqual matches numeric fields at or below the value.
func LessThanOrEqual(field string, value any) Filter {
	return Comparison{Field: field, Op: OpLessThanOrEqual, Value: value}
}

// In matches records where the field equals any of the values.
func In(field string, values ...any) Filter {
	return Membership{Field: field, Values: values}
}

// NotIn matches records where the field equals none of the values.
func NotIn(field string, values ...any) Filter {
	return Membership{Field: field, Negated: true, Values: values}
}

// And requires every clause to match.
func And(clauses ...Filter) Filter {
	return Conjunction{Clauses: clauses}
}

// Or requires at least one clause to match.
func Or(clauses ...Filter) Filter {
	return Disjunction{Clauses: clauses}
}

// Not inverts a clause.
func Not(clause Filter) Filter {
	return Negation{Clause: clause}
}

// ValidateFilter walks a filter tree against a definition: referenced fields
// must exist by storage name, must not be vectors, and range operators need
// numeric fields.
func ValidateFilter(f Filter, def Definition) error {
	if f == nil {
		return nil
	}
	switch clause := f.(type) {
	case Comparison:
		field, err := filterField(clause.Field, def)
		if err != nil {
			return err
		}
		switch clause.Op {
		case OpEqual, OpNotEqual:
		case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
			if !field.IsNumeric() {
				return fmt.Errorf("%w: range comparison on non-numeric field %q", ErrInvalidFilter, clause.Field)
			}
		default:
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, clause.Op)
		}
		return nil
	case Membership:
		if len(clause.Values) == 0 {
			return fmt.Errorf("%w: membership on field %q needs values", ErrInvalidFilter, clause.Field)
		}
		_, err := filterField(clause.Field, def)
		return err
	case Conjunction:
		if len(clause.Clauses) == 0 {
			return fmt.Errorf("%w: empty conjunction", ErrInvalidFilter)
		}
		for _, sub := range clause.Clauses {
			if err := ValidateFilter(sub, def); err != nil {
				return err
			}
		}
		return nil
	case Disjunction:
		if len(clause.Clauses) == 0 {
			return fmt.Errorf("%w: empty disjunction", ErrInvalidFilter)
		}
		for _, sub := range clause.Clauses {
			if err := ValidateFilter(sub, def); err != nil {
				return err
			}
		}
		return nil
	case Negation:
		if clause.Clause == nil {
			return fmt.Errorf("%w: empty negation", ErrInvalidFilter)
		}
		return ValidateFilter(clause.Clause, def)
	default:
		return fmt.Errorf("%w: unknown clause type %T", ErrInvalidFilter, f)
	}
}

func filterField(name string, def Definition) (Field, error) {
	field, ok := def.Field(name)
	if !ok {
		return Field{}, fmt.Errorf("%w: %q (storage names are used)", ErrUnknownField, name)
	}
	if field.Role == RoleVector {
		return Field{}, fmt.Errorf("%w: cannot filter on vector field %q", ErrInvalidFilter, name)
	}
	return field, nil
}
