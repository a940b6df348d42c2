package sqlexpr

import (
	"github.com/huandu/go-sqlbuilder"
)

// Subquery is a restricted sub-selection used for correlated EXISTS tests.
type Subquery struct {
	engine *Engine
	sb     *sqlbuilder.SelectBuilder
}

// Subquery starts a `SELECT 1 FROM table` sub-selection.
func (t *Table) Subquery() *Subquery {
	sb := sqlbuilder.NewSelectBuilder()
	sb.SetFlavor(t.engine.flavor)
	sb.Select("1").From(t.Quoted())
	return &Subquery{engine: t.engine, sb: sb}
}

// Where adds predicates joined with AND.
func (s *Subquery) Where(exprs ...Expr) *Subquery {
	for _, e := range exprs {
		s.sb.Where(s.sb.Var(e.b))
	}
	return s
}

// Join adds an INNER JOIN.
func (s *Subquery) Join(t *Table, on Expr) *Subquery {
	s.sb.JoinWithOption(sqlbuilder.InnerJoin, t.Quoted(), s.sb.Var(on.b))
	return s
}

// Exists wraps the sub-selection as an EXISTS expression.
func (s *Subquery) Exists() Expr {
	return s.engine.build("EXISTS ($?)", s.sb)
}

// Apply ANDs each expression onto a select builder.
func Apply(sb *sqlbuilder.SelectBuilder, exprs ...Expr) *sqlbuilder.SelectBuilder {
	for _, e := range exprs {
		sb.Where(sb.Var(e.b))
	}
	return sb
}
