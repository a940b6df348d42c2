package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Tables loads table information from `PRAGMA table_info` and
// `PRAGMA index_list`.
func (d *SQLite) Tables(ctx context.Context, tables ...string) ([]Table, error) {
	if len(tables) == 0 {
		all, err := queryStrings(ctx, d.db,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
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

func (d *SQLite) columns(ctx context.Context, tableName string) ([]Column, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT cid, name, type, \"notnull\", dflt_value, pk FROM pragma_table_info(?)", tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var cid, notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		col.Type = strings.ToLower(col.Type)
		col.Nullable = notNull == 0 && pk == 0
		col.PrimaryKey = pk > 0
		col.AutoIncrement = col.PrimaryKey && col.Type == "integer"
		if defaultValue.Valid {
			col.Default = defaultValue.String
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (d *SQLite) indexes(ctx context.Context, tableName string) ([]Index, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT il.name, ii.name, il."unique"
		FROM pragma_index_list(?) il, pragma_index_info(il.name) ii
		WHERE il.origin <> 'pk'
		ORDER BY il.name, ii.seqno`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := newIndexSet()
	for rows.Next() {
		var name, column string
		var unique int
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return nil, err
		}
		indexes.add(name, column, unique == 1)
	}
	return indexes.list(), rows.Err()
}
