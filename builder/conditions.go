package builder

import (
	"fmt"
	"sort"

	"github.com/xcono/sqlfilter/sqlexpr"
)

// Operator is a canonical filter operator name.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNotEq   Operator = "not_eq"
	OpLt      Operator = "lt"
	OpNotLt   Operator = "not_lt"
	OpGt      Operator = "gt"
	OpNotGt   Operator = "not_gt"
	OpLtEq    Operator = "lteq"
	OpNotLtEq Operator = "not_lteq"
	OpGtEq    Operator = "gteq"
	OpNotGtEq Operator = "not_gteq"

	OpRange    Operator = "range"
	OpNotRange Operator = "not_range"
	OpIn       Operator = "in"
	OpNotIn    Operator = "not_in"

	OpContains      Operator = "contains"
	OpNotContains   Operator = "not_contains"
	OpStartsWith    Operator = "starts_with"
	OpNotStartsWith Operator = "not_starts_with"
	OpEndsWith      Operator = "ends_with"
	OpNotEndsWith   Operator = "not_ends_with"

	OpRegex    Operator = "regex"
	OpNotRegex Operator = "not_regex"

	OpNull Operator = "null"
)

var operatorNames = map[string]Operator{
	"eq":                        OpEq,
	"equal":                     OpEq,
	"not_eq":                    OpNotEq,
	"not_equal":                 OpNotEq,
	"lt":                        OpLt,
	"less_than":                 OpLt,
	"not_lt":                    OpNotLt,
	"not_less_than":             OpNotLt,
	"gt":                        OpGt,
	"greater_than":              OpGt,
	"not_gt":                    OpNotGt,
	"not_greater_than":          OpNotGt,
	"lteq":                      OpLtEq,
	"less_than_or_equal":        OpLtEq,
	"not_lteq":                  OpNotLtEq,
	"not_less_than_or_equal":    OpNotLtEq,
	"gteq":                      OpGtEq,
	"greater_than_or_equal":     OpGtEq,
	"not_gteq":                  OpNotGtEq,
	"not_greater_than_or_equal": OpNotGtEq,
	"range":                     OpRange,
	"in_range":                  OpRange,
	"not_range":                 OpNotRange,
	"not_in_range":              OpNotRange,
	"in":                        OpIn,
	"is_in":                     OpIn,
	"not_in":                    OpNotIn,
	"is_not_in":                 OpNotIn,
	"contains":                  OpContains,
	"contain":                   OpContains,
	"not_contains":              OpNotContains,
	"not_contain":               OpNotContains,
	"does_not_contain":          OpNotContains,
	"starts_with":               OpStartsWith,
	"start_with":                OpStartsWith,
	"not_starts_with":           OpNotStartsWith,
	"not_start_with":            OpNotStartsWith,
	"does_not_start_with":       OpNotStartsWith,
	"ends_with":                 OpEndsWith,
	"end_with":                  OpEndsWith,
	"not_ends_with":             OpNotEndsWith,
	"not_end_with":              OpNotEndsWith,
	"does_not_end_with":         OpNotEndsWith,
	"regex":                     OpRegex,
	"regex_match":               OpRegex,
	"matches":                   OpRegex,
	"not_regex":                 OpNotRegex,
	"not_regex_match":           OpNotRegex,
	"does_not_match":            OpNotRegex,
	"not_match":                 OpNotRegex,
	"null":                      OpNull,
	"is_null":                   OpNull,
}

// ParseOperator resolves an operator name or alias.
func ParseOperator(name string) (Operator, error) {
	op, ok := operatorNames[name]
	if !ok {
		return "", argumentError(KindUnknownSymbol, name, "unrecognised operator '%s'", name)
	}
	return op, nil
}

// OperatorNames lists every accepted operator name, aliases included.
func OperatorNames() []string {
	names := make([]string, 0, len(operatorNames))
	for name := range operatorNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Condition builds the expression for one operator applied to node.
func Condition(op Operator, node sqlexpr.Node, value any) (sqlexpr.Expr, error) {
	switch op {
	case OpEq, OpNotEq, OpLt, OpNotLt, OpGt, OpNotGt, OpLtEq, OpNotLtEq, OpGtEq, OpNotGtEq:
		return comparison(op, node, value)
	case OpRange:
		return rangeCondition(node, value)
	case OpNotRange:
		return notRangeCondition(node, value)
	case OpIn, OpNotIn:
		return membership(op, node, value)
	case OpContains, OpNotContains, OpStartsWith, OpNotStartsWith, OpEndsWith, OpNotEndsWith:
		return pattern(op, node, value)
	case OpRegex, OpNotRegex:
		return regex(op, node, value)
	case OpNull:
		isNull, err := validateBoolean(value)
		if err != nil {
			return sqlexpr.Expr{}, err
		}
		if isNull {
			return node.IsNull(), nil
		}
		return node.IsNotNull(), nil
	}
	return sqlexpr.Expr{}, argumentError(KindUnknownSymbol, string(op), "unrecognised operator '%s'", op)
}

// comparison maps each not_ form to its complementary operator.
func comparison(op Operator, node sqlexpr.Node, value any) (sqlexpr.Expr, error) {
	if err := validateScalar(value); err != nil {
		return sqlexpr.Expr{}, err
	}

	switch op {
	case OpEq:
		return node.Eq(value), nil
	case OpNotEq:
		return node.NotEq(value), nil
	case OpLt, OpNotGtEq:
		return node.Lt(value), nil
	case OpGtEq, OpNotLt:
		return node.GtEq(value), nil
	case OpGt, OpNotLtEq:
		return node.Gt(value), nil
	case OpLtEq, OpNotGt:
		return node.LtEq(value), nil
	}
	return sqlexpr.Expr{}, fmt.Errorf("operator %s is not a comparison", op)
}

// Logical is a combinator keyword.
type Logical string

const (
	LogicalAnd Logical = "and"
	LogicalOr  Logical = "or"
	LogicalNot Logical = "not"
)

func parseLogical(key string) (Logical, bool) {
	switch Logical(key) {
	case LogicalAnd, LogicalOr, LogicalNot:
		return Logical(key), true
	}
	return "", false
}

// Combine folds expressions left to right with AND or OR.
func Combine(op Logical, exprs ...sqlexpr.Expr) (sqlexpr.Expr, error) {
	if op != LogicalAnd && op != LogicalOr {
		return sqlexpr.Expr{}, argumentError(KindUnknownSymbol, string(op), "unrecognised combiner '%s'", op)
	}
	if len(exprs) < 1 {
		return sqlexpr.Expr{}, argumentError(KindMalformed, nil, "combiner '%s' must have at least 1 entry, got '0'", op)
	}

	result := exprs[0]
	for _, e := range exprs[1:] {
		if op == LogicalAnd {
			result = result.And(e)
		} else {
			result = result.Or(e)
		}
	}
	return result, nil
}

// Negate wraps each expression in NOT individually.
func Negate(exprs ...sqlexpr.Expr) []sqlexpr.Expr {
	negated := make([]sqlexpr.Expr, len(exprs))
	for i, e := range exprs {
		negated[i] = e.Not()
	}
	return negated
}
