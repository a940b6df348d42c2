package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/xcono/sqlfilter/builder"
	"github.com/xcono/sqlfilter/sqlexpr"
)

// Registry holds the compiled definitions of one service.
type Registry struct {
	name     string
	driver   string
	engine   *sqlexpr.Engine
	composer *builder.Composer
}

// Open connects to the service database and builds its registry,
// reflecting column lists where the config asks for them.
func Open(ctx context.Context, name string, svc Service) (*Registry, *sql.DB, error) {
	driver, _, err := ParseDSN(svc.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("service %s: %w", name, err)
	}

	db, err := OpenDB(svc.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("service %s: %w", name, err)
	}

	reflector, err := NewDatabase(driver, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	reg, err := NewRegistry(ctx, name, driver, svc, reflector)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return reg, db, nil
}

// NewRegistry builds the definitions of every schema in svc. The reflector
// may be nil when every schema lists its fields.
func NewRegistry(ctx context.Context, name, driver string, svc Service, reflector Database) (*Registry, error) {
	flavor, err := sqlexpr.ParseFlavor(driver)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", name, err)
	}
	engine := sqlexpr.New(flavor)

	names := make([]string, 0, len(svc.Schemas))
	for n := range svc.Schemas {
		names = append(names, n)
	}
	sort.Strings(names)

	definitions := make([]*builder.Definition, 0, len(names))
	for _, n := range names {
		s := svc.Schemas[n]

		fields := s.Fields
		if s.Reflected() {
			fields, err = reflectFields(ctx, reflector, s.TableName(n), s.Hidden)
			if err != nil {
				return nil, fmt.Errorf("schema %s: %w", n, err)
			}
		}

		def, err := newDefinition(engine, n, s, fields)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", n, err)
		}
		definitions = append(definitions, def)
	}

	composer, err := builder.NewComposer(definitions...)
	if err != nil {
		return nil, fmt.Errorf("service %s: %w", name, err)
	}

	return &Registry{name: name, driver: driver, engine: engine, composer: composer}, nil
}

func (r *Registry) Name() string                { return r.name }
func (r *Registry) Driver() string              { return r.driver }
func (r *Registry) Engine() *sqlexpr.Engine     { return r.engine }
func (r *Registry) Composer() *builder.Composer { return r.composer }

func reflectFields(ctx context.Context, reflector Database, table string, hidden []string) ([]string, error) {
	if reflector == nil {
		return nil, fmt.Errorf("fields of %s must be listed without a database connection", table)
	}

	tables, err := reflector.Tables(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(tables) != 1 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var fields []string
	for _, name := range tables[0].ColumnNames() {
		if slices.Contains(hidden, name) || slices.Contains(DefaultHidden, strings.ToLower(name)) {
			continue
		}
		fields = append(fields, name)
	}
	return fields, nil
}

func newDefinition(engine *sqlexpr.Engine, name string, s Schema, fields []string) (*builder.Definition, error) {
	table := engine.Table(s.TableName(name))

	mappings := make([]builder.Mapping, 0, len(s.Mappings))
	for _, m := range s.Mappings {
		node, err := mappingNode(engine, table, m)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, builder.Mapping{Name: m.Name, Node: node})
	}

	assoc, err := buildAssociations(engine, table.Name(), s.Associations)
	if err != nil {
		return nil, err
	}

	return builder.NewDefinition(name, table, builder.DefinitionSpec{
		Fields:       fields,
		TextFields:   s.Text,
		Mappings:     mappings,
		Associations: assoc,
		Defaults: builder.Defaults{
			OrderBy:   s.Defaults.OrderBy,
			Direction: strings.ToLower(s.Defaults.Direction),
		},
	})
}

func mappingNode(engine *sqlexpr.Engine, table *sqlexpr.Table, m Mapping) (sqlexpr.Node, error) {
	switch {
	case m.SQL != "" && len(m.Concat) > 0:
		return sqlexpr.Node{}, fmt.Errorf("mapping %s: use either concat or sql, not both", m.Name)
	case m.SQL != "":
		return engine.Raw(m.SQL), nil
	case len(m.Concat) > 0:
		parts := make([]sqlexpr.Node, len(m.Concat))
		for i, p := range m.Concat {
			if p.Column != "" {
				parts[i] = table.Column(p.Column)
			} else {
				parts[i] = engine.Value(p.Value)
			}
		}
		return engine.Concat(parts...), nil
	default:
		return sqlexpr.Node{}, fmt.Errorf("mapping %s: concat or sql is required", m.Name)
	}
}

// buildAssociations rebuilds the association tree from its flat declaration.
// A parent refers to the latest association declared for that table.
func buildAssociations(engine *sqlexpr.Engine, root string, config []Association) ([]*builder.Association, error) {
	var top []*builder.Association
	declared := map[string]*builder.Association{}

	for _, a := range config {
		if a.Table == "" {
			return nil, fmt.Errorf("association without a table")
		}
		on, err := ParseOn(engine, a.On)
		if err != nil {
			return nil, fmt.Errorf("association %s: %w", a.Table, err)
		}

		node := &builder.Association{
			Table:     engine.Table(a.Table),
			On:        on,
			Available: a.Available,
		}

		switch a.Parent {
		case "", root:
			top = append(top, node)
		default:
			parent, ok := declared[a.Parent]
			if !ok {
				return nil, fmt.Errorf("association %s: parent %s is not declared before it", a.Table, a.Parent)
			}
			parent.Associations = append(parent.Associations, node)
		}
		declared[a.Table] = node
	}
	return top, nil
}

var (
	onPredicate = regexp.MustCompile(`^(\w+)\.(\w+)\s*=\s*(\w+)\.(\w+)$`)
	onAnd       = regexp.MustCompile(`(?i)\s+and\s+`)
)

// ParseOn parses "a.x = b.y [and c.z = d.w ...]" into a join predicate.
func ParseOn(engine *sqlexpr.Engine, on string) (sqlexpr.Expr, error) {
	var expr sqlexpr.Expr
	for _, part := range onAnd.Split(strings.TrimSpace(on), -1) {
		m := onPredicate.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return sqlexpr.Expr{}, fmt.Errorf("join predicate must be in the form table.column = table.column, got %q", part)
		}
		eq := engine.Table(m[1]).Column(m[2]).Eq(engine.Table(m[3]).Column(m[4]))
		if expr.IsZero() {
			expr = eq
		} else {
			expr = expr.And(eq)
		}
	}
	return expr, nil
}
