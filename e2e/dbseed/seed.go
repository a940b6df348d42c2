package dbseed

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"unicode"

	"github.com/xcono/sqlfilter/schema"
)

// Seed runs every statement of the migration at path against db.
func Seed(ctx context.Context, db *sql.DB, path string) (int, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	statements := splitStatements(string(script))
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return i, fmt.Errorf("statement %d of %s: %w\n%s", i+1, path, err, stmt)
		}
	}
	return len(statements), nil
}

// MustSeed opens dsn, seeds it from path and returns the open
// connection. Any failure is fatal to t.
func MustSeed(t *testing.T, dsn, path string) *sql.DB {
	t.Helper()

	db, err := schema.OpenDB(dsn)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", dsn, err)
	}

	n, err := Seed(context.Background(), db, path)
	if err != nil {
		db.Close()
		t.Fatalf("Failed to seed %s: %v", dsn, err)
	}
	t.Logf("Executed %d statements from %s", n, path)

	return db
}

// splitStatements splits a script on semicolons outside of quotes.
// Comments are dropped and whitespace outside of quotes is collapsed to
// single spaces.
func splitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      rune
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}
	space := func() {
		if s := current.String(); s != "" && !strings.HasSuffix(s, " ") {
			current.WriteByte(' ')
		}
	}

	runes := []rune(script)
	next := func(i int) rune {
		if i+1 < len(runes) {
			return runes[i+1]
		}
		return 0
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			// a doubled quote closes and reopens, which keeps it intact
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			current.WriteRune(r)
		case r == '-' && next(i) == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			space()
		case r == '/' && next(i) == '*':
			for i += 2; i < len(runes) && !(runes[i] == '*' && next(i) == '/'); i++ {
			}
			i++
			space()
		case r == ';':
			flush()
		case unicode.IsSpace(r):
			space()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return statements
}
