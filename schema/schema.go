package schema

import "github.com/zeromicro/go-zero/core/logx"

type (
	// Config is the application configuration.
	Config struct {
		Name string `json:"name,default=sqlfilter"`
		Host string `json:"host,default=0.0.0.0"`
		Port int    `json:"port,default=3002"`
		// Service selects the service served over HTTP.
		// Defaults to the first service by name.
		Service  string       `json:"service,optional"`
		Log      logx.LogConf `json:"log,optional"`
		Services Services     `json:"services"`
	}

	// Services is a named map of database services.
	Services map[string]Service

	// Service isolates access to the database.
	Service struct {
		// DSN is "driver://connection", e.g. "mysql://root@tcp(127.0.0.1:3306)/shop".
		DSN string `yaml:"dsn" json:"dsn"`
		// Schemas is a named map used for defining filterable entities.
		Schemas Schemas `yaml:"schemas" json:"schemas,optional"`
	}

	// Schemas is a named map used for defining schemas
	Schemas map[string]Schema

	// Schema describes one filterable entity.
	Schema struct {
		// Table name in the database. Defaults to the schema name.
		Table string `yaml:"table" json:"table,optional"`
		// Fields that may be filtered on. Empty or ["*"] reflects
		// the live column list.
		Fields []string `yaml:"fields" json:"fields,optional"`
		// Text fields are searched by the any_text key.
		Text []string `yaml:"text" json:"text,optional"`
		// Hidden fields are removed from the reflected column list.
		// By default hidden columns named: pass, password, hash, token, secret.
		Hidden       []string      `yaml:"hidden" json:"hidden,optional"`
		Mappings     []Mapping     `yaml:"mappings" json:"mappings,optional"`
		Associations []Association `yaml:"associations" json:"associations,optional"`
		Defaults     Defaults      `yaml:"defaults" json:"defaults,optional"`
	}

	// Mapping is a virtual field computed from columns.
	Mapping struct {
		Name string `yaml:"name" json:"name"`
		// Concat joins columns and literal values.
		Concat []Part `yaml:"concat" json:"concat,optional"`
		// SQL is a raw expression, used verbatim.
		SQL string `yaml:"sql" json:"sql,optional"`
	}

	// Part is a column of the entity table or a literal value.
	Part struct {
		Column string `yaml:"column" json:"column,optional"`
		Value  string `yaml:"value" json:"value,optional"`
	}

	// Association joins the entity, or an association declared before it,
	// to another table. The tree is declared flat: Parent names the table
	// this association hangs off, empty for the entity itself.
	Association struct {
		Table  string `yaml:"table" json:"table"`
		Parent string `yaml:"parent" json:"parent,optional"`
		// On is one or more "table.column = table.column" predicates
		// joined with "and".
		On string `yaml:"on" json:"on"`
		// Available marks tables that can be filtered on.
		// Junction tables leave it unset.
		Available bool `yaml:"available" json:"available,optional"`
	}

	Defaults struct {
		OrderBy   string `yaml:"order_by" json:"order_by,optional"`
		Direction string `yaml:"direction" json:"direction,optional"`
	}
)

// DefaultHidden are never exposed when fields are reflected.
var DefaultHidden = []string{"pass", "password", "hash", "token", "secret"}

// TableName returns the database table of the schema.
func (s Schema) TableName(name string) string {
	if s.Table != "" {
		return s.Table
	}
	return name
}

// Reflected reports whether the field list comes from the database.
func (s Schema) Reflected() bool {
	return len(s.Fields) == 0 || (len(s.Fields) == 1 && s.Fields[0] == "*")
}
