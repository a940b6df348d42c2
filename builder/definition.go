package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xcono/sqlfilter/sqlexpr"
)

type (
	// Mapping binds a virtual field name to a computed expression.
	Mapping struct {
		Name string
		Node sqlexpr.Node
	}

	// Defaults are the entity's default sort settings.
	Defaults struct {
		OrderBy   string
		Direction string
	}

	// DefinitionSpec is the static description a Definition is built from.
	DefinitionSpec struct {
		Fields       []string
		TextFields   []string
		Mappings     []Mapping
		Associations []*Association
		Defaults     Defaults
	}
)

// Definition is the immutable filter schema of one entity.
type Definition struct {
	name         string
	table        *sqlexpr.Table
	fields       []string
	fieldSet     map[string]struct{}
	textFields   []string
	mappings     map[string]sqlexpr.Node
	associations []*Association
	branches     []Branch
	defaults     Defaults
}

// NewDefinition validates spec and builds the entity definition.
func NewDefinition(name string, table *sqlexpr.Table, spec DefinitionSpec) (*Definition, error) {
	if name == "" {
		return nil, fmt.Errorf("definition name is required")
	}
	if table == nil {
		return nil, fmt.Errorf("definition %s: table is required", name)
	}
	if len(spec.Fields) == 0 && len(spec.Mappings) == 0 {
		return nil, fmt.Errorf("definition %s: at least one field or mapping is required", name)
	}

	d := &Definition{
		name:       name,
		table:      table,
		fields:     slices.Clone(spec.Fields),
		fieldSet:   make(map[string]struct{}, len(spec.Fields)),
		textFields: slices.Clone(spec.TextFields),
		mappings:   make(map[string]sqlexpr.Node, len(spec.Mappings)),
		defaults:   spec.Defaults,
	}

	for _, f := range spec.Fields {
		if f == "" || strings.Contains(f, ".") {
			return nil, fmt.Errorf("definition %s: invalid field name %q", name, f)
		}
		d.fieldSet[f] = struct{}{}
	}

	for _, m := range spec.Mappings {
		if m.Name == "" || m.Node.IsZero() {
			return nil, fmt.Errorf("definition %s: mapping %q has no expression", name, m.Name)
		}
		if _, dup := d.mappings[m.Name]; dup {
			return nil, fmt.Errorf("definition %s: duplicate mapping %q", name, m.Name)
		}
		d.mappings[m.Name] = m.Node
	}

	for _, f := range spec.TextFields {
		if !d.Accepts(f) {
			return nil, fmt.Errorf("definition %s: text field %q is neither a field nor a mapping", name, f)
		}
	}

	if err := checkAssociations(name, spec.Associations); err != nil {
		return nil, err
	}

	if d.defaults.OrderBy != "" && !d.Accepts(d.defaults.OrderBy) {
		return nil, fmt.Errorf("definition %s: default order %q is not a field", name, d.defaults.OrderBy)
	}
	switch strings.ToLower(d.defaults.Direction) {
	case "", "asc", "desc":
	default:
		return nil, fmt.Errorf("definition %s: invalid default direction %q", name, d.defaults.Direction)
	}

	d.associations = cloneAssociations(spec.Associations)
	d.branches = Branches(table, d.associations)
	return d, nil
}

func checkAssociations(name string, associations []*Association) error {
	for _, a := range associations {
		if a == nil || a.Table == nil {
			return fmt.Errorf("definition %s: association without a table", name)
		}
		if a.On.IsZero() {
			return fmt.Errorf("definition %s: association %s has no join predicate", name, a.Table.Name())
		}
		if err := checkAssociations(name, a.Associations); err != nil {
			return err
		}
	}
	return nil
}

func (d *Definition) Name() string          { return d.name }
func (d *Definition) Table() *sqlexpr.Table { return d.table }
func (d *Definition) Defaults() Defaults    { return d.defaults }

// Fields returns the whitelisted column names.
func (d *Definition) Fields() []string {
	return slices.Clone(d.fields)
}

func (d *Definition) TextFields() []string {
	return slices.Clone(d.textFields)
}

// MappingNames returns the virtual field names, sorted.
func (d *Definition) MappingNames() []string {
	names := make([]string, 0, len(d.mappings))
	for name := range d.mappings {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Associations returns a copy of the association tree.
func (d *Definition) Associations() []*Association {
	return cloneAssociations(d.associations)
}

func (d *Definition) Branches() []Branch {
	branches := make([]Branch, len(d.branches))
	for i, b := range d.branches {
		branches[i] = slices.Clone(b)
	}
	return branches
}

// Accepts reports whether field may be filtered on.
func (d *Definition) Accepts(field string) bool {
	if _, ok := d.mappings[field]; ok {
		return true
	}
	_, ok := d.fieldSet[field]
	return ok
}

func (d *Definition) isMapping(field string) bool {
	_, ok := d.mappings[field]
	return ok
}

// Column resolves a field to the operand the algebra works on. Mappings
// shadow plain columns of the same name.
func (d *Definition) Column(field string) (sqlexpr.Node, error) {
	if node, ok := d.mappings[field]; ok {
		return node, nil
	}
	if _, ok := d.fieldSet[field]; ok {
		return d.table.Column(field), nil
	}
	return sqlexpr.Node{}, argumentError(KindSchema, field,
		"name must be in '%v', got '%s'", d.allowed(), field)
}

func (d *Definition) allowed() []string {
	names := append(slices.Clone(d.fields), d.MappingNames()...)
	slices.Sort(names)
	return slices.Compact(names)
}

// Path finds the edges that join this entity to target. The first edge is
// this entity's root.
func (d *Definition) Path(target *Definition) (Branch, error) {
	path, ok := shortestPath(d.branches, target.table.Name())
	if !ok {
		return nil, argumentError(KindSchema, target.name,
			"'%s' is not associated with '%s'", target.name, d.name)
	}
	return path, nil
}
