package builder

import (
	"regexp"
	"strings"

	"github.com/xcono/sqlfilter/sqlexpr"
)

var intervalPattern = regexp.MustCompile(`^([\[(])(.*),(.*)([\])])$`)

type bounds struct {
	start          any
	end            any
	startInclusive bool
	endInclusive   bool
}

// parseInterval reads "[a,b)" style strings; the bracket on each side
// selects inclusive or exclusive.
func parseInterval(s string) (bounds, error) {
	m := intervalPattern.FindStringSubmatch(s)
	if m == nil {
		return bounds{}, argumentError(KindValueShape, s, "range string must be in the form (|[.*,.*]|), got '%s'", s)
	}
	return bounds{
		startInclusive: m[1] == "[",
		start:          m[2],
		end:            m[3],
		endInclusive:   m[4] == "]",
	}, nil
}

// parseRange accepts {from, to} or {interval}, never both.
func parseRange(value any) (bounds, error) {
	m, ok := asMap(value)
	if !ok {
		return bounds{}, argumentError(KindValueShape, value,
			"range filter must be {'from': 'value', 'to': 'value'} or {'interval': '(|[.*,.*]|)'} got '%v'", value)
	}

	from, _ := m.Get("from")
	to, _ := m.Get("to")
	interval, _ := m.Get("interval")
	hasFrom, hasTo, hasInterval := !blank(from), !blank(to), !blank(interval)

	switch {
	case hasFrom && hasTo && hasInterval:
		return bounds{}, argumentError(KindValueShape, m,
			"range filter must use either ('from' and 'to') or ('interval'), not both")
	case !hasFrom && hasTo:
		return bounds{}, argumentError(KindValueShape, m, "range filter missing 'from'")
	case hasFrom && !hasTo:
		return bounds{}, argumentError(KindValueShape, m, "range filter missing 'to'")
	case hasFrom && hasTo:
		if err := validateScalar(from); err != nil {
			return bounds{}, err
		}
		if err := validateScalar(to); err != nil {
			return bounds{}, err
		}
		return bounds{start: from, end: to, startInclusive: true}, nil
	case hasInterval:
		s, ok := interval.(string)
		if !ok {
			return bounds{}, argumentError(KindValueShape, m, "range string must be in the form (|[.*,.*]|), got '%v'", interval)
		}
		return parseInterval(s)
	}

	return bounds{}, argumentError(KindValueShape, m,
		"range filter did not contain ('from' and 'to') or ('interval'), got '%v'", value)
}

func blank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func rangeCondition(node sqlexpr.Node, value any) (sqlexpr.Expr, error) {
	b, err := parseRange(value)
	if err != nil {
		return sqlexpr.Expr{}, err
	}

	var start, end sqlexpr.Expr
	if b.startInclusive {
		start = node.GtEq(b.start)
	} else {
		start = node.Gt(b.start)
	}
	if b.endInclusive {
		end = node.LtEq(b.end)
	} else {
		end = node.Lt(b.end)
	}
	return start.And(end), nil
}

// notRangeCondition excludes the range by flipping each bound rather than
// wrapping the AND in NOT.
func notRangeCondition(node sqlexpr.Node, value any) (sqlexpr.Expr, error) {
	b, err := parseRange(value)
	if err != nil {
		return sqlexpr.Expr{}, err
	}

	var start, end sqlexpr.Expr
	if b.startInclusive {
		start = node.Lt(b.start)
	} else {
		start = node.LtEq(b.start)
	}
	if b.endInclusive {
		end = node.Gt(b.end)
	} else {
		end = node.GtEq(b.end)
	}
	return start.Or(end), nil
}
