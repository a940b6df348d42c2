package schema

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	// database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type (
	// Database reflects table metadata from a live connection.
	Database interface {
		Tables(ctx context.Context, tables ...string) ([]Table, error)
	}

	Table struct {
		Name    string   `json:"name"`
		Columns []Column `json:"columns"`
		Indexes []Index  `json:"indexes"`
	}

	Column struct {
		Name          string `json:"name"`
		Type          string `json:"type"`
		Nullable      bool   `json:"nullable"`
		Default       string `json:"default"`
		Comment       string `json:"comment"`
		AutoIncrement bool   `json:"autoIncrement"`
		PrimaryKey    bool   `json:"primaryKey"`
		ForeignKey    bool   `json:"foreignKey"`
		UniqueKey     bool   `json:"uniqueKey"`
	}

	Index struct {
		Name    string   `json:"name"`
		Columns []string `json:"columns"`
		Unique  bool     `json:"unique"`
	}
)

// ColumnNames returns the table's column names in ordinal order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// SQLiteDriver is the registered name of the sqlite3 driver with a
// regexp(pattern, value) function, which backs the REGEXP operator.
const SQLiteDriver = "sqlite3_regexp"

func init() {
	sql.Register(SQLiteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", sqliteRegexp, true)
		},
	})
}

func sqliteRegexp(pattern string, value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case string:
		return regexp.MatchString(pattern, v)
	case []byte:
		return regexp.Match(pattern, v)
	default:
		return regexp.MatchString(pattern, fmt.Sprint(v))
	}
}

// ParseDSN splits "driver://connection" into the driver name and the
// connection string handed to sql.Open.
func ParseDSN(dsn string) (driver, conn string, err error) {
	driver, conn, ok := strings.Cut(dsn, "://")
	if !ok || driver == "" || conn == "" {
		return "", "", fmt.Errorf("dsn must be in the form driver://connection, got %q", dsn)
	}

	switch driver {
	case "mysql":
		return driver, conn, nil
	case "postgres", "postgresql":
		// lib/pq parses the full URL
		return "postgres", "postgres://" + conn, nil
	case "sqlite", "sqlite3":
		return "sqlite3", conn, nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// OpenDB opens a connection pool for a "driver://connection" DSN.
func OpenDB(dsn string) (*sql.DB, error) {
	driver, conn, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	name := driver
	if driver == "sqlite3" {
		name = SQLiteDriver
	}

	db, err := sql.Open(name, conn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewDatabase returns the reflector for driver.
func NewDatabase(driver string, db *sql.DB) (Database, error) {
	switch driver {
	case "mysql":
		return NewMySQL(db), nil
	case "postgres":
		return NewPostgres(db), nil
	case "sqlite3":
		return NewSQLite(db), nil
	default:
		return nil, fmt.Errorf("no reflection for driver %q", driver)
	}
}

type (
	MySQL struct {
		db *sql.DB
	}
)

// NewMySQL creates a new MySQL database instance
func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db}
}

// Tables loads table information:
// - columns from `information_schema.columns`
// - indexes from `information_schema.statistics`
func (d *MySQL) Tables(ctx context.Context, tables ...string) ([]Table, error) {
	var result []Table

	// Get current database name from the connection
	var dbName string
	err := d.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve database name: %w", err)
	}

	// If no tables specified, get all tables
	if len(tables) == 0 {
		allTables, err := d.getAllTables(ctx, dbName)
		if err != nil {
			return nil, fmt.Errorf("failed to get all tables: %w", err)
		}
		tables = allTables
	}

	for _, tableName := range tables {
		columns, err := d.getTableColumns(ctx, dbName, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("table %s does not exist", tableName)
		}

		indexes, err := d.getTableIndexes(ctx, dbName, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get indexes for table %s: %w", tableName, err)
		}

		result = append(result, Table{Name: tableName, Columns: columns, Indexes: indexes})
	}

	return result, nil
}

// getAllTables retrieves all table names from the database
func (d *MySQL) getAllTables(ctx context.Context, dbName string) ([]string, error) {
	query := `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
	return queryStrings(ctx, d.db, query, dbName)
}

// getTableColumns retrieves column information for a table
func (d *MySQL) getTableColumns(ctx context.Context, dbName, tableName string) ([]Column, error) {
	query := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			COLUMN_COMMENT,
			COLUMN_KEY,
			EXTRA
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := d.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var isNullable, key, extra string
		var defaultValue sql.NullString

		err := rows.Scan(
			&col.Name,
			&col.Type,
			&isNullable,
			&defaultValue,
			&col.Comment,
			&key,
			&extra,
		)
		if err != nil {
			return nil, err
		}

		col.Nullable = isNullable == "YES"
		if defaultValue.Valid {
			col.Default = defaultValue.String
		}

		// Set key flags
		col.PrimaryKey = key == "PRI"
		col.ForeignKey = key == "MUL"
		col.UniqueKey = key == "UNI"
		col.AutoIncrement = strings.Contains(extra, "auto_increment")

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// getTableIndexes retrieves index information for a table
func (d *MySQL) getTableIndexes(ctx context.Context, dbName, tableName string) ([]Index, error) {
	query := `
		SELECT
			INDEX_NAME,
			COLUMN_NAME,
			NON_UNIQUE
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`

	rows, err := d.db.QueryContext(ctx, query, dbName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := newIndexSet()
	for rows.Next() {
		var indexName, columnName string
		var nonUnique int

		if err := rows.Scan(&indexName, &columnName, &nonUnique); err != nil {
			return nil, err
		}

		// Skip PRIMARY key as it's handled in columns
		if indexName == "PRIMARY" {
			continue
		}
		indexes.add(indexName, columnName, nonUnique == 0)
	}

	return indexes.list(), rows.Err()
}

// indexSet groups index columns by index name.
type indexSet map[string]*Index

func newIndexSet() indexSet {
	return indexSet{}
}

func (s indexSet) add(name, column string, unique bool) {
	if s[name] == nil {
		s[name] = &Index{Name: name, Columns: []string{}, Unique: unique}
	}
	s[name].Columns = append(s[name].Columns, column)
}

func (s indexSet) list() []Index {
	indexes := make([]Index, 0, len(s))
	for _, index := range s {
		indexes = append(indexes, *index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].Name < indexes[j].Name })
	return indexes
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
