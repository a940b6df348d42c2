package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xcono/sqlfilter/builder"
)

func TestRange(t *testing.T) {
	node := nameColumn()
	M := builder.M

	tt := []struct {
		name     string
		op       builder.Operator
		value    any
		expected string
	}{
		{"from to", builder.OpRange, M("from", "a", "to", "b"), "`customers`.`name` >= 'a' AND `customers`.`name` < 'b'"},
		{"from to numbers", builder.OpRange, M("from", 1, "to", 5), "`customers`.`name` >= 1 AND `customers`.`name` < 5"},
		{"interval [)", builder.OpRange, M("interval", "[a,b)"), "`customers`.`name` >= 'a' AND `customers`.`name` < 'b'"},
		{"interval (]", builder.OpRange, M("interval", "(2,5]"), "`customers`.`name` > '2' AND `customers`.`name` <= '5'"},
		{"interval []", builder.OpRange, M("interval", "[2,5]"), "`customers`.`name` >= '2' AND `customers`.`name` <= '5'"},
		{"interval ()", builder.OpRange, M("interval", "(2,5)"), "`customers`.`name` > '2' AND `customers`.`name` < '5'"},
		{"not from to", builder.OpNotRange, M("from", "a", "to", "b"), "(`customers`.`name` < 'a' OR `customers`.`name` >= 'b')"},
		{"not interval (]", builder.OpNotRange, M("interval", "(2,5]"), "(`customers`.`name` <= '2' OR `customers`.`name` > '5')"},
		{"not interval [)", builder.OpNotRange, M("interval", "[2,5)"), "(`customers`.`name` < '2' OR `customers`.`name` >= '5')"},
		{"plain map", builder.OpRange, map[string]any{"from": "a", "to": "b"}, "`customers`.`name` >= 'a' AND `customers`.`name` < 'b'"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			e, err := builder.Condition(tc.op, node, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, e.String())
		})
	}
}

func TestRangeFormsAreEquivalent(t *testing.T) {
	node := nameColumn()

	for _, op := range []builder.Operator{builder.OpRange, builder.OpNotRange} {
		fromTo, err := builder.Condition(op, node, builder.M("from", "2015-01-01", "to", "2016-01-01"))
		require.NoError(t, err)
		interval, err := builder.Condition(op, node, builder.M("interval", "[2015-01-01,2016-01-01)"))
		require.NoError(t, err)

		sqlA, argsA := fromTo.Build()
		sqlB, argsB := interval.Build()
		assert.Equal(t, sqlA, sqlB)
		assert.Equal(t, argsA, argsB)
	}
}

func TestRangeErrors(t *testing.T) {
	M := builder.M

	tt := []struct {
		name    string
		value   any
		message string
	}{
		{"both forms", M("from", "a", "to", "b", "interval", "[a,b)"), "range filter must use either ('from' and 'to') or ('interval'), not both"},
		{"to alone", M("to", "b"), "range filter missing 'from'"},
		{"from alone", M("from", "a"), "range filter missing 'to'"},
		{"blank to", M("from", "a", "to", " "), "range filter missing 'to'"},
		{"neither", M("other", "x"), "range filter did not contain ('from' and 'to') or ('interval'), got '[{other x}]'"},
		{"bad interval", M("interval", "a,b"), "range string must be in the form (|[.*,.*]|), got 'a,b'"},
		{"interval without comma", M("interval", "[ab]"), "range string must be in the form (|[.*,.*]|), got '[ab]'"},
		{"interval not a string", M("interval", 5), "range string must be in the form (|[.*,.*]|), got '5'"},
		{"not a hash", "[a,b)", "range filter must be {'from': 'value', 'to': 'value'} or {'interval': '(|[.*,.*]|)'} got '[a,b)'"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			for _, op := range []builder.Operator{builder.OpRange, builder.OpNotRange} {
				_, err := builder.Condition(op, nameColumn(), tc.value)
				qe, ok := builder.AsQueryArgumentError(err)
				require.True(t, ok, "%v", err)
				assert.Equal(t, builder.KindValueShape, qe.Kind)
				assert.Equal(t, tc.message, qe.Message)
				assert.NotNil(t, qe.Fragment)
			}
		})
	}
}
