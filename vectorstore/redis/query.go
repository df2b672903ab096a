package redis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quayside/gangway/vectorstore"
)

// scoreAlias is the name the KNN clause binds the distance to.
const scoreAlias = "vector_score"

// knnQuery renders the full search query: the filter expression (or a
// match-all) followed by the KNN clause against the vector parameter.
//
//	(@rating:[4 +inf])=>[KNN 3 @description $vector AS vector_score]
func knnQuery(filter vectorstore.Filter, def vectorstore.Definition, vectorField string, k int) (string, error) {
	base := "*"
	if filter != nil {
		expr, err := filterExpression(filter, def)
		if err != nil {
			return "", err
		}
		base = expr
	}
	return fmt.Sprintf("(%s)=>[KNN %d @%s $vector AS %s]", base, k, vectorField, scoreAlias), nil
}

// filterExpression lowers a filter tree into RediSearch query syntax.
func filterExpression(f vectorstore.Filter, def vectorstore.Definition) (string, error) {
	switch clause := f.(type) {
	case vectorstore.Comparison:
		return comparisonExpression(clause, def)
	case vectorstore.Membership:
		return membershipExpression(clause, def)
	case vectorstore.Conjunction:
		parts, err := clauseExpressions(clause.Clauses, def)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(parts, " ") + ")", nil
	case vectorstore.Disjunction:
		parts, err := clauseExpressions(clause.Clauses, def)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(parts, " | ") + ")", nil
	case vectorstore.Negation:
		inner, err := filterExpression(clause.Clause, def)
		if err != nil {
			return "", err
		}
		return "-" + inner, nil
	default:
		return "", fmt.Errorf("%w: unknown clause type %T", vectorstore.ErrInvalidFilter, f)
	}
}

func clauseExpressions(clauses []vectorstore.Filter, def vectorstore.Definition) ([]string, error) {
	parts := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		part, err := filterExpression(clause, def)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func comparisonExpression(clause vectorstore.Comparison, def vectorstore.Definition) (string, error) {
	field, ok := def.Field(clause.Field)
	if !ok {
		return "", fmt.Errorf("%w: %q", vectorstore.ErrUnknownField, clause.Field)
	}

	switch clause.Op {
	case vectorstore.OpEqual, vectorstore.OpNotEqual:
		expr, err := equalityExpression(field, clause.Value)
		if err != nil {
			return "", err
		}
		if clause.Op == vectorstore.OpNotEqual {
			expr = "-" + expr
		}
		return expr, nil
	case vectorstore.OpGreaterThan, vectorstore.OpGreaterThanOrEqual,
		vectorstore.OpLessThan, vectorstore.OpLessThanOrEqual:
		return rangeExpression(field, clause)
	default:
		return "", fmt.Errorf("%w: unknown operator %q", vectorstore.ErrInvalidFilter, clause.Op)
	}
}

func equalityExpression(field vectorstore.Field, value any) (string, error) {
	if field.IsNumeric() {
		bound, err := numericBound(value)
		if err != nil {
			return "", fmt.Errorf("%w: field %q: %v", vectorstore.ErrInvalidFilter, field.StorageName, err)
		}
		return fmt.Sprintf("@%s:[%s %s]", field.StorageName, bound, bound), nil
	}

	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q needs a string value, got %T", vectorstore.ErrInvalidFilter, field.StorageName, value)
	}
	if field.FullText {
		return fmt.Sprintf("@%s:(%q)", field.StorageName, text), nil
	}
	return fmt.Sprintf("@%s:{%s}", field.StorageName, escapeTag(text)), nil
}

func rangeExpression(field vectorstore.Field, clause vectorstore.Comparison) (string, error) {
	bound, err := numericBound(clause.Value)
	if err != nil {
		return "", fmt.Errorf("%w: field %q: %v", vectorstore.ErrInvalidFilter, clause.Field, err)
	}

	switch clause.Op {
	case vectorstore.OpGreaterThan:
		return fmt.Sprintf("@%s:[(%s +inf]", field.StorageName, bound), nil
	case vectorstore.OpGreaterThanOrEqual:
		return fmt.Sprintf("@%s:[%s +inf]", field.StorageName, bound), nil
	case vectorstore.OpLessThan:
		return fmt.Sprintf("@%s:[-inf (%s]", field.StorageName, bound), nil
	default:
		return fmt.Sprintf("@%s:[-inf %s]", field.StorageName, bound), nil
	}
}

func membershipExpression(clause vectorstore.Membership, def vectorstore.Definition) (string, error) {
	field, ok := def.Field(clause.Field)
	if !ok {
		return "", fmt.Errorf("%w: %q", vectorstore.ErrUnknownField, clause.Field)
	}
	if len(clause.Values) == 0 {
		return "", fmt.Errorf("%w: membership on field %q needs values", vectorstore.ErrInvalidFilter, clause.Field)
	}

	var expr string
	if field.IsNumeric() {
		parts := make([]string, 0, len(clause.Values))
		for _, value := range clause.Values {
			bound, err := numericBound(value)
			if err != nil {
				return "", fmt.Errorf("%w: field %q: %v", vectorstore.ErrInvalidFilter, clause.Field, err)
			}
			parts = append(parts, fmt.Sprintf("@%s:[%s %s]", field.StorageName, bound, bound))
		}
		expr = "(" + strings.Join(parts, " | ") + ")"
	} else {
		tags := make([]string, 0, len(clause.Values))
		for _, value := range clause.Values {
			text, ok := value.(string)
			if !ok {
				return "", fmt.Errorf("%w: field %q needs string values, got %T", vectorstore.ErrInvalidFilter, clause.Field, value)
			}
			tags = append(tags, escapeTag(text))
		}
		expr = fmt.Sprintf("@%s:{%s}", field.StorageName, strings.Join(tags, " | "))
	}

	if clause.Negated {
		expr = "-" + expr
	}
	return expr, nil
}

func numericBound(value any) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%T is not numeric", value)
	}
}

// escapeTag backslash-escapes the characters RediSearch treats as syntax
// inside tag values.
func escapeTag(value string) string {
	var sb strings.Builder
	sb.Grow(len(value))
	for _, r := range value {
		if strings.ContainsRune(` ,.<>{}[]"':;!@#$%^&*()-+=~/\|`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
