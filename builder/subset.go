package builder

import (
	"fmt"

	"github.com/xcono/sqlfilter/sqlexpr"
)

func membership(op Operator, node sqlexpr.Node, value any) (sqlexpr.Expr, error) {
	items, err := validateArray(value)
	if err != nil {
		return sqlexpr.Expr{}, err
	}

	in := node.In(items...)
	if op == OpNotIn {
		return in.Not(), nil
	}
	return in, nil
}

func pattern(op Operator, node sqlexpr.Node, value any) (sqlexpr.Expr, error) {
	if err := validateScalar(value); err != nil {
		return sqlexpr.Expr{}, err
	}
	s := fmt.Sprint(value)

	var like sqlexpr.Expr
	switch op {
	case OpContains, OpNotContains:
		like = node.Like(likePattern(s, true, true))
	case OpStartsWith, OpNotStartsWith:
		like = node.Like(likePattern(s, false, true))
	case OpEndsWith, OpNotEndsWith:
		like = node.Like(likePattern(s, true, false))
	default:
		return sqlexpr.Expr{}, fmt.Errorf("operator %s is not a pattern", op)
	}

	switch op {
	case OpNotContains, OpNotStartsWith, OpNotEndsWith:
		return like.Not(), nil
	}
	return like, nil
}

func regex(op Operator, node sqlexpr.Node, value any) (sqlexpr.Expr, error) {
	if err := validateScalar(value); err != nil {
		return sqlexpr.Expr{}, err
	}
	s := EscapeRegex(fmt.Sprint(value))

	if op == OpNotRegex {
		return node.NotRegexp(s), nil
	}
	return node.Regexp(s), nil
}
