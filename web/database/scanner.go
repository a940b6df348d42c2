package database

import (
	"database/sql"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// scanRows drains rows into a non-nil slice. Text and blob columns come
// back from the drivers as []byte and are turned into strings so rows
// encode as JSON text instead of base64.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	results := []Row{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = decode(values[i])
			values[i] = nil
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

func decode(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
