package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/xcono/sqlfilter/e2e/compare"
	"github.com/xcono/sqlfilter/e2e/dbseed"
	"github.com/xcono/sqlfilter/schema"
	"github.com/xcono/sqlfilter/web"
	"github.com/zeromicro/go-zero/core/conf"
)

// TestConfig holds configuration for e2e tests
type TestConfig struct {
	// ConfigFile is the service config both databases are served with.
	ConfigFile  string
	Service     string
	MySQLDSN    string
	PostgresDSN string
}

// TestSuite serves the same service config from MySQL and PostgreSQL.
type TestSuite struct {
	config   *TestConfig
	dbs      []*sql.DB
	mysql    *httptest.Server
	postgres *httptest.Server
}

// NewTestSuite seeds both databases and starts a server for each
func NewTestSuite(t *testing.T, config *TestConfig) *TestSuite {
	t.Helper()

	var c schema.Config
	if err := conf.Load(config.ConfigFile, &c); err != nil {
		t.Fatalf("Failed to load %s: %v", config.ConfigFile, err)
	}
	svc, ok := c.Services[config.Service]
	if !ok {
		t.Fatalf("Service %s is not configured in %s", config.Service, config.ConfigFile)
	}

	ts := &TestSuite{config: config}
	ts.mysql = ts.start(t, svc, config.MySQLDSN, "migrations/mysql/shop.sql")
	ts.postgres = ts.start(t, svc, config.PostgresDSN, "migrations/postgres/shop.sql")
	return ts
}

func (ts *TestSuite) start(t *testing.T, svc schema.Service, dsn, migration string) *httptest.Server {
	ts.dbs = append(ts.dbs, dbseed.MustSeed(t, dsn, migration))

	svc.DSN = dsn
	reg, db, err := schema.Open(context.Background(), ts.config.Service, svc)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", dsn, err)
	}
	ts.dbs = append(ts.dbs, db)

	return httptest.NewServer(web.NewHandler(reg, db))
}

// Close cleans up the test suite
func (ts *TestSuite) Close() {
	for _, s := range []*httptest.Server{ts.mysql, ts.postgres} {
		if s != nil {
			s.Close()
		}
	}
	for _, db := range ts.dbs {
		db.Close()
	}
}

// QueryMySQL posts a filter request for entity to the MySQL server
func (ts *TestSuite) QueryMySQL(t *testing.T, entity, body string) compare.Response {
	return queryAPI(t, ts.mysql.URL+"/"+entity+"/filter", body)
}

// QueryPostgres posts a filter request for entity to the PostgreSQL server
func (ts *TestSuite) QueryPostgres(t *testing.T, entity, body string) compare.Response {
	return queryAPI(t, ts.postgres.URL+"/"+entity+"/filter", body)
}

// TestCase represents a single test case
type TestCase struct {
	Name   string
	Entity string
	// Body is a POST /{entity}/filter request.
	Body string
	// Keys limits the compared columns. Empty compares whole rows.
	Keys []string
	// IDs, when set, are the expected ids in any order.
	IDs         []float64
	Status      int
	Description string
}

// RunTestCase runs a single test case against both servers
func (ts *TestSuite) RunTestCase(t *testing.T, tc TestCase) {
	t.Run(tc.Name, func(t *testing.T) {
		if tc.Description != "" {
			t.Logf("Description: %s", tc.Description)
		}

		my := ts.QueryMySQL(t, tc.Entity, tc.Body)
		pg := ts.QueryPostgres(t, tc.Entity, tc.Body)

		status := tc.Status
		if status == 0 {
			status = http.StatusOK
		}
		if my.StatusCode != status {
			t.Fatalf("Expected status %d, got %d: %v", status, my.StatusCode, my.Data)
		}

		if err := compare.CompareResponses(my, pg, tc.Keys...); err != nil {
			t.Errorf("Response mismatch for %s %s: %v", tc.Entity, tc.Body, err)
		}

		if tc.IDs != nil {
			ids, err := compare.SortedIDs(my.Data)
			if err != nil {
				t.Fatalf("Failed to read ids: %v", err)
			}
			if !reflect.DeepEqual(tc.IDs, ids) {
				t.Errorf("Expected ids %v, got %v", tc.IDs, ids)
			}
		}
	})
}

// RunTestCases runs multiple test cases
func (ts *TestSuite) RunTestCases(t *testing.T, testCases []TestCase) {
	for _, tc := range testCases {
		ts.RunTestCase(t, tc)
	}
}

func queryAPI(t *testing.T, url, body string) compare.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to query %s: %v", url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("Failed to decode response from %s: %v\n%s", url, err, raw)
	}

	return compare.Response{
		Data:       data,
		StatusCode: resp.StatusCode,
	}
}
