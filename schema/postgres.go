package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Tables loads table information for the current schema:
// - columns from `information_schema.columns`
// - indexes from `pg_index`
func (d *Postgres) Tables(ctx context.Context, tables ...string) ([]Table, error) {
	if len(tables) == 0 {
		all, err := queryStrings(ctx, d.db, `
			SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`)
		if err != nil {
			return nil, fmt.Errorf("failed to get all tables: %w", err)
		}
		tables = all
	}

	var result []Table
	for _, tableName := range tables {
		columns, err := d.columns(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("table %s does not exist", tableName)
		}

		indexes, err := d.indexes(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get indexes for table %s: %w", tableName, err)
		}

		result = append(result, Table{Name: tableName, Columns: columns, Indexes: indexes})
	}
	return result, nil
}

func (d *Postgres) columns(ctx context.Context, tableName string) ([]Column, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT c.column_name, c.data_type, c.is_nullable, c.column_default,
			COALESCE(tc.constraint_type, '')
		FROM information_schema.columns c
		LEFT JOIN information_schema.key_column_usage k
			ON k.table_schema = c.table_schema AND k.table_name = c.table_name AND k.column_name = c.column_name
		LEFT JOIN information_schema.table_constraints tc
			ON tc.constraint_schema = k.constraint_schema AND tc.constraint_name = k.constraint_name
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var isNullable, constraint string
		var defaultValue sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &isNullable, &defaultValue, &constraint); err != nil {
			return nil, err
		}

		col.Nullable = isNullable == "YES"
		if defaultValue.Valid {
			col.Default = defaultValue.String
			col.AutoIncrement = strings.HasPrefix(defaultValue.String, "nextval(")
		}

		// a column in several constraints comes back once per constraint
		if n := len(columns); n > 0 && columns[n-1].Name == col.Name {
			col = columns[n-1]
			columns = columns[:n-1]
		}
		switch constraint {
		case "PRIMARY KEY":
			col.PrimaryKey = true
		case "FOREIGN KEY":
			col.ForeignKey = true
		case "UNIQUE":
			col.UniqueKey = true
		}

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (d *Postgres) indexes(ctx context.Context, tableName string) ([]Index, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT i.relname, a.attname, ix.indisunique
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_index ix ON ix.indrelid = t.oid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = current_schema() AND t.relname = $1 AND NOT ix.indisprimary
		ORDER BY i.relname, a.attnum`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := newIndexSet()
	for rows.Next() {
		var name, column string
		var unique bool
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return nil, err
		}
		indexes.add(name, column, unique)
	}
	return indexes.list(), rows.Err()
}
