package sqlexpr

import (
	"github.com/huandu/go-sqlbuilder"
)

// Selection is one output column of a query.
type Selection struct {
	Alias string
	Node  Node
}

// Select starts `SELECT ... FROM table` in the engine flavor. Every
// selection is aliased so computed columns scan under their field name.
// Without selections the query returns every column of the table.
func (t *Table) Select(columns ...Selection) *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.NewSelectBuilder()
	sb.SetFlavor(t.engine.flavor)

	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, sb.As(sb.Var(c.Node.arg), t.engine.Quote(c.Alias)))
	}
	if len(cols) == 0 {
		cols = append(cols, t.Quoted()+".*")
	}

	sb.Select(cols...).From(t.Quoted())
	return sb
}

// OrderBy appends node to the ORDER BY clause of sb.
func OrderBy(sb *sqlbuilder.SelectBuilder, node Node, desc bool) *sqlbuilder.SelectBuilder {
	sb.OrderBy(sb.Var(node.arg))
	if desc {
		sb.Desc()
	} else {
		sb.Asc()
	}
	return sb
}
