package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xcono/sqlfilter/sqlexpr"
)

// AnyTextKey applies its operators to every text field of the entity and
// ORs the results.
const AnyTextKey = "any_text"

// Composer compiles filter maps into expressions. It is safe for
// concurrent use.
type Composer struct {
	definitions map[string]*Definition
	tables      map[string]*Definition
	names       []string
}

// NewComposer indexes the definitions by entity name and table name.
func NewComposer(definitions ...*Definition) (*Composer, error) {
	c := &Composer{
		definitions: make(map[string]*Definition, len(definitions)),
		tables:      make(map[string]*Definition, len(definitions)),
	}

	for _, d := range definitions {
		if d == nil {
			return nil, fmt.Errorf("nil definition")
		}
		if _, dup := c.definitions[d.name]; dup {
			return nil, fmt.Errorf("duplicate definition %s", d.name)
		}
		if other, dup := c.tables[d.table.Name()]; dup {
			return nil, fmt.Errorf("definitions %s and %s share table %s", other.name, d.name, d.table.Name())
		}
		c.definitions[d.name] = d
		c.tables[d.table.Name()] = d
		c.names = append(c.names, d.name)
	}
	slices.Sort(c.names)

	return c, nil
}

// Definition returns the definition of an entity.
func (c *Composer) Definition(entity string) (*Definition, bool) {
	d, ok := c.definitions[entity]
	return d, ok
}

// Entities returns the registered entity names, sorted.
func (c *Composer) Entities() []string {
	return slices.Clone(c.names)
}

// Compile turns a filter into expressions to be ANDed onto a query of entity.
func (c *Composer) Compile(entity string, filter Map) ([]sqlexpr.Expr, error) {
	d, ok := c.definitions[entity]
	if !ok {
		return nil, argumentError(KindSchema, entity, "unrecognised entity '%s'", entity)
	}
	return c.compileMap(d, filter)
}

type keyKind int

const (
	keyLogical keyKind = iota + 1
	keyMappedField
	keyStandardField
	keyAllText
	keyCrossEntity
)

type filterKey struct {
	kind    keyKind
	logical Logical
	field   string
	target  *Definition
	path    Branch
}

// classify resolves a key against the entity once, before any value is read.
func (c *Composer) classify(d *Definition, key string) (filterKey, error) {
	if l, ok := parseLogical(key); ok {
		return filterKey{kind: keyLogical, logical: l}, nil
	}
	if d.isMapping(key) {
		return filterKey{kind: keyMappedField, field: key, target: d}, nil
	}
	if _, ok := d.fieldSet[key]; ok {
		return filterKey{kind: keyStandardField, field: key, target: d}, nil
	}
	if key == AnyTextKey {
		return filterKey{kind: keyAllText, target: d}, nil
	}

	if entity, field, ok := strings.Cut(key, "."); ok {
		target, ok := c.definitions[entity]
		if !ok {
			return filterKey{}, argumentError(KindSchema, key, "unrecognised entity '%s' in '%s'", entity, key)
		}
		if !target.Accepts(field) {
			return filterKey{}, argumentError(KindSchema, key,
				"name must be in '%v', got '%s'", target.allowed(), field)
		}
		if target == d {
			return filterKey{kind: keyStandardField, field: field, target: d}, nil
		}
		path, err := d.Path(target)
		if err != nil {
			return filterKey{}, err
		}
		return filterKey{kind: keyCrossEntity, field: field, target: target, path: path}, nil
	}

	return filterKey{}, argumentError(KindUnknownSymbol, key, "unrecognised combiner or field name '%s'", key)
}

func (c *Composer) compileMap(d *Definition, filter Map) ([]sqlexpr.Expr, error) {
	if len(filter) < 1 {
		return nil, argumentError(KindMalformed, filter, "filter hash must have at least 1 entry, got '0'")
	}

	var result []sqlexpr.Expr
	for _, p := range filter {
		exprs, err := c.compileEntry(d, p.Key, p.Value)
		if err != nil {
			return nil, err
		}
		result = append(result, exprs...)
	}
	return result, nil
}

func (c *Composer) compileEntry(d *Definition, key string, value any) ([]sqlexpr.Expr, error) {
	k, err := c.classify(d, key)
	if err != nil {
		return nil, err
	}

	switch k.kind {
	case keyLogical:
		return c.compileLogical(d, k.logical, value)
	case keyMappedField, keyStandardField:
		return c.compileField(k.target, k.field, value)
	case keyAllText:
		return c.compileAllText(d, value)
	case keyCrossEntity:
		exprs, err := c.compileField(k.target, k.field, value)
		if err != nil {
			return nil, err
		}
		return []sqlexpr.Expr{exists(k.target, k.path, exprs)}, nil
	}
	return nil, fmt.Errorf("unhandled filter key %q", key)
}

func (c *Composer) compileLogical(d *Definition, op Logical, value any) ([]sqlexpr.Expr, error) {
	m, ok := asMap(value)
	if !ok {
		return nil, argumentError(KindMalformed, value, "combiner '%s' must be a hash, got '%v'", op, value)
	}
	exprs, err := c.compileMap(d, m)
	if err != nil {
		return nil, err
	}

	if op == LogicalNot {
		return Negate(exprs...), nil
	}
	if len(exprs) < 2 {
		return nil, argumentError(KindMalformed, m,
			"combiner '%s' must have at least 2 entries, got '%d'", op, len(exprs))
	}
	combined, err := Combine(op, exprs...)
	if err != nil {
		return nil, err
	}
	return []sqlexpr.Expr{combined}, nil
}

// operators reads a field's {operator: operand} map.
func operators(field string, value any) (Map, error) {
	m, ok := asMap(value)
	if !ok {
		return nil, argumentError(KindValueShape, value,
			"filter for '%s' must be a hash of operators, got '%v'", field, value)
	}
	if len(m) < 1 {
		return nil, argumentError(KindMalformed, m, "filter hash must have at least 1 entry, got '0'")
	}
	return m, nil
}

func (c *Composer) compileField(d *Definition, field string, value any) ([]sqlexpr.Expr, error) {
	node, err := d.Column(field)
	if err != nil {
		return nil, err
	}
	ops, err := operators(field, value)
	if err != nil {
		return nil, err
	}

	result := make([]sqlexpr.Expr, 0, len(ops))
	for _, p := range ops {
		op, err := ParseOperator(p.Key)
		if err != nil {
			return nil, err
		}
		e, err := Condition(op, node, p.Value)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func (c *Composer) compileAllText(d *Definition, value any) ([]sqlexpr.Expr, error) {
	if len(d.textFields) == 0 {
		return nil, argumentError(KindSchema, AnyTextKey, "'%s' has no text fields", d.name)
	}
	ops, err := operators(AnyTextKey, value)
	if err != nil {
		return nil, err
	}

	var exprs []sqlexpr.Expr
	for _, p := range ops {
		op, err := ParseOperator(p.Key)
		if err != nil {
			return nil, err
		}
		for _, field := range d.textFields {
			node, err := d.Column(field)
			if err != nil {
				return nil, err
			}
			e, err := Condition(op, node, p.Value)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
	}

	combined, err := Combine(LogicalOr, exprs...)
	if err != nil {
		return nil, err
	}
	return []sqlexpr.Expr{combined}, nil
}

// exists wraps conditions on target in a correlated EXISTS subquery. The
// edge reaching target closes the correlation in WHERE; every other edge
// on the path becomes an INNER JOIN.
func exists(target *Definition, path Branch, conditions []sqlexpr.Expr) sqlexpr.Expr {
	sq := target.table.Subquery()

	var correlation []sqlexpr.Expr
	for _, e := range path[1:] {
		if e.Table.Name() == target.table.Name() {
			correlation = append(correlation, e.On)
			continue
		}
		sq.Join(e.Table, e.On)
	}

	return sq.Where(conditions...).Where(correlation...).Exists()
}
