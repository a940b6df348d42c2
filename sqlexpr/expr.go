package sqlexpr

import (
	"github.com/huandu/go-sqlbuilder"
)

// Node is an operand: a column, a computed expression or a bound value.
type Node struct {
	engine *Engine
	arg    any
}

// IsZero reports whether the node was never initialized.
func (n Node) IsZero() bool {
	return n.engine == nil
}

// String renders the node with arguments interpolated.
func (n Node) String() string {
	return render(n.engine, sqlbuilder.Build("$?", n.arg))
}

func (n Node) compare(op string, v any) Expr {
	if other, ok := v.(Node); ok {
		v = other.arg
	}
	return n.engine.build("$? "+op+" $?", n.arg, v)
}

func (n Node) Eq(v any) Expr    { return n.compare("=", v) }
func (n Node) NotEq(v any) Expr { return n.compare("<>", v) }
func (n Node) Lt(v any) Expr    { return n.compare("<", v) }
func (n Node) LtEq(v any) Expr  { return n.compare("<=", v) }
func (n Node) Gt(v any) Expr    { return n.compare(">", v) }
func (n Node) GtEq(v any) Expr  { return n.compare(">=", v) }

// Like builds a pattern match. Backslash is the escape character on every flavor.
func (n Node) Like(pattern string) Expr {
	if n.engine.flavor == sqlbuilder.SQLite {
		return n.engine.build(`$? LIKE $? ESCAPE '\'`, n.arg, pattern)
	}
	return n.engine.build("$? LIKE $?", n.arg, pattern)
}

// In builds a set membership test.
func (n Node) In(values ...any) Expr {
	return n.engine.build("$? IN ($?)", n.arg, sqlbuilder.List(values))
}

func (n Node) IsNull() Expr {
	return n.engine.build("$? IS NULL", n.arg)
}

func (n Node) IsNotNull() Expr {
	return n.engine.build("$? IS NOT NULL", n.arg)
}

// Regexp builds a regular expression match. Flavors without a native
// operator get REGEXP and fail when the statement executes.
func (n Node) Regexp(pattern string) Expr {
	if n.engine.flavor == sqlbuilder.PostgreSQL {
		return n.engine.build("$? ~ $?", n.arg, pattern)
	}
	return n.engine.build("$? REGEXP $?", n.arg, pattern)
}

func (n Node) NotRegexp(pattern string) Expr {
	if n.engine.flavor == sqlbuilder.PostgreSQL {
		return n.engine.build("$? !~ $?", n.arg, pattern)
	}
	return n.engine.build("$? NOT REGEXP $?", n.arg, pattern)
}

// Expr is an immutable boolean expression.
type Expr struct {
	engine *Engine
	b      sqlbuilder.Builder
}

func (e *Engine) build(format string, args ...any) Expr {
	return Expr{engine: e, b: sqlbuilder.Build(format, args...)}
}

// IsZero reports whether the expression was never initialized.
func (e Expr) IsZero() bool {
	return e.b == nil
}

// And returns a new expression; neither operand is modified.
func (e Expr) And(other Expr) Expr {
	return e.engine.build("$? AND $?", e.b, other.b)
}

func (e Expr) Or(other Expr) Expr {
	return e.engine.build("($? OR $?)", e.b, other.b)
}

func (e Expr) Not() Expr {
	return e.engine.build("NOT ($?)", e.b)
}

// Builder exposes the underlying sqlbuilder builder for embedding.
func (e Expr) Builder() sqlbuilder.Builder {
	return e.b
}

// Build renders the expression with the engine flavor's placeholders.
func (e Expr) Build() (string, []any) {
	return e.b.BuildWithFlavor(e.engine.flavor)
}

func (e Expr) BuildWithFlavor(flavor sqlbuilder.Flavor) (string, []any) {
	return e.b.BuildWithFlavor(flavor)
}

// String renders the expression with arguments interpolated.
func (e Expr) String() string {
	return render(e.engine, e.b)
}

func render(engine *Engine, b sqlbuilder.Builder) string {
	sql, args := b.BuildWithFlavor(engine.flavor)
	if len(args) == 0 {
		return sql
	}
	s, err := engine.flavor.Interpolate(sql, args)
	if err != nil {
		return sql
	}
	return s
}
