package sqlexpr

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// Engine renders identifiers and expressions for a single SQL flavor.
type Engine struct {
	flavor sqlbuilder.Flavor
}

// New creates an engine for the given flavor.
func New(flavor sqlbuilder.Flavor) *Engine {
	return &Engine{flavor: flavor}
}

// ParseFlavor maps a driver or flavor name to a sqlbuilder flavor.
func ParseFlavor(name string) (sqlbuilder.Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return sqlbuilder.MySQL, nil
	case "postgres", "postgresql", "pgx":
		return sqlbuilder.PostgreSQL, nil
	case "sqlite", "sqlite3":
		return sqlbuilder.SQLite, nil
	case "sqlserver", "mssql":
		return sqlbuilder.SQLServer, nil
	default:
		return sqlbuilder.MySQL, fmt.Errorf("unsupported sql flavor %q", name)
	}
}

// Flavor returns the flavor used for quoting and placeholders.
func (e *Engine) Flavor() sqlbuilder.Flavor {
	return e.flavor
}

// Quote quotes a single identifier.
func (e *Engine) Quote(name string) string {
	return e.flavor.Quote(name)
}

// Table returns a handle addressing the named table.
func (e *Engine) Table(name string) *Table {
	return &Table{engine: e, name: name}
}

// Value returns an operand bound as a query argument.
func (e *Engine) Value(v any) Node {
	return Node{engine: e, arg: v}
}

// Raw returns an operand rendered verbatim.
func (e *Engine) Raw(sql string) Node {
	return Node{engine: e, arg: sqlbuilder.Raw(sql)}
}

// Concat joins operands using the flavor's string concatenation.
func (e *Engine) Concat(parts ...Node) Node {
	if len(parts) == 1 {
		return parts[0]
	}

	args := make([]any, 0, len(parts))
	marks := make([]string, 0, len(parts))
	for _, p := range parts {
		args = append(args, p.arg)
		marks = append(marks, "$?")
	}

	var format string
	switch e.flavor {
	case sqlbuilder.MySQL:
		format = "CONCAT(" + strings.Join(marks, ", ") + ")"
	case sqlbuilder.SQLServer:
		format = "(" + strings.Join(marks, " + ") + ")"
	default:
		format = "(" + strings.Join(marks, " || ") + ")"
	}

	return Node{engine: e, arg: sqlbuilder.Build(format, args...)}
}

// Table addresses one table's columns.
type Table struct {
	engine *Engine
	name   string
}

// Name returns the unquoted table name.
func (t *Table) Name() string {
	return t.name
}

// Quoted returns the table name quoted for the engine flavor.
func (t *Table) Quoted() string {
	return t.engine.Quote(t.name)
}

// Engine returns the engine the table belongs to.
func (t *Table) Engine() *Engine {
	return t.engine
}

// Column returns a qualified column reference.
func (t *Table) Column(name string) Node {
	return t.engine.Raw(t.Quoted() + "." + t.engine.Quote(name))
}
