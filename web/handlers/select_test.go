package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xcono/sqlfilter/builder"
	"github.com/xcono/sqlfilter/sqlexpr"
	"github.com/xcono/sqlfilter/web/database"
)

func newRouter(t *testing.T) (*Router, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := sqlexpr.New(sqlbuilder.MySQL)
	customers, orders := e.Table("customers"), e.Table("orders")

	customersDef, err := builder.NewDefinition("customers", customers, builder.DefinitionSpec{
		Fields: []string{"id", "name"},
		Associations: []*builder.Association{{
			Table:     orders,
			On:        orders.Column("customer_id").Eq(customers.Column("id")),
			Available: true,
		}},
	})
	require.NoError(t, err)
	ordersDef, err := builder.NewDefinition("orders", orders, builder.DefinitionSpec{
		Fields: []string{"id", "title"},
	})
	require.NoError(t, err)

	c, err := builder.NewComposer(customersDef, ordersDef)
	require.NoError(t, err)

	return NewRouter(database.NewExecutor(db), c), mock
}

func customerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), "Alice").
		AddRow(int64(2), "Bob")
}

func TestHandleEntitySelect(t *testing.T) {
	router, mock := newRouter(t)

	mock.ExpectQuery("SELECT .* FROM `customers` WHERE `customers`.`name` LIKE \\?").
		WithArgs("%o%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(2), "Bob"))

	filter := url.QueryEscape(`{"name": {"contains": "o"}}`)
	req := httptest.NewRequest(http.MethodGet, "/customers?filter="+filter, nil)
	w := httptest.NewRecorder()
	router.HandleEntity(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))
	assert.JSONEq(t, `[{"id": 2, "name": "Bob"}]`, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleEntityFilterBody(t *testing.T) {
	router, mock := newRouter(t)

	mock.ExpectQuery("SELECT .* FROM `customers` WHERE EXISTS \\(SELECT 1 FROM `orders` WHERE `orders`.`title` = \\? AND `orders`.`customer_id` = `customers`.`id`\\)").
		WithArgs("cups").
		WillReturnRows(customerRows())

	body := `{"filter": {"orders.title": {"eq": "cups"}}}`
	req := httptest.NewRequest(http.MethodPost, "/customers/filter", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.HandleEntity(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id": 1, "name": "Alice"}, {"id": 2, "name": "Bob"}]`, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleEntityExplain(t *testing.T) {
	router, _ := newRouter(t)

	body := `{"filter": {"id": {"in": [1, 2]}}, "sorting": {"order_by": "name", "direction": "desc"}}`
	req := httptest.NewRequest(http.MethodPost, "/customers/explain", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.HandleEntity(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"sql": "SELECT `+"`customers`.`id` AS `id`, `customers`.`name` AS `name` FROM `customers` WHERE `customers`.`id` IN (?, ?) ORDER BY `customers`.`name` DESC"+`",
		"args": [1, 2]
	}`, w.Body.String())
}

func TestHandleEntityErrors(t *testing.T) {
	tt := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   string
		hint   any
	}{
		{
			name:   "unknown field",
			method: http.MethodGet,
			target: "/customers?filter=" + url.QueryEscape(`{"password": {"eq": "x"}}`),
			status: http.StatusBadRequest,
			code:   "unknown_symbol",
			hint:   "password",
		},
		{
			name:   "bad array",
			method: http.MethodPost,
			target: "/customers/filter",
			body:   `{"filter": {"id": {"in": []}}}`,
			status: http.StatusBadRequest,
			code:   "value_shape",
			hint:   []any{},
		},
		{
			name:   "unknown operator",
			method: http.MethodPost,
			target: "/customers/explain",
			body:   `{"filter": {"id": {"like": 1}}}`,
			status: http.StatusBadRequest,
			code:   "unknown_symbol",
			hint:   "like",
		},
		{
			name:   "malformed body",
			method: http.MethodPost,
			target: "/customers/filter",
			body:   `{"filter":`,
			status: http.StatusBadRequest,
			code:   "malformed",
		},
		{
			name:   "unknown entity",
			method: http.MethodGet,
			target: "/suppliers",
			status: http.StatusNotFound,
			code:   "HTTP404",
		},
		{
			name:   "unknown action",
			method: http.MethodGet,
			target: "/customers/export",
			status: http.StatusNotFound,
			code:   "HTTP404",
		},
		{
			name:   "method not allowed",
			method: http.MethodDelete,
			target: "/customers",
			status: http.StatusMethodNotAllowed,
			code:   "HTTP405",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newRouter(t)

			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			router.HandleEntity(w, req)

			require.Equal(t, tc.status, w.Code, w.Body.String())

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp["code"])
			assert.NotEmpty(t, resp["error"])
			if tc.hint != nil {
				assert.Equal(t, tc.hint, resp["hint"])
			}
		})
	}
}

func TestHandleEntityDatabaseError(t *testing.T) {
	router, mock := newRouter(t)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	w := httptest.NewRecorder()
	router.HandleEntity(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "Database query failed", "code": "HTTP500", "details": "connection refused"}`, w.Body.String())
}

func TestHandleEntitySingle(t *testing.T) {
	tt := []struct {
		name   string
		query  string
		rows   *sqlmock.Rows
		status int
		body   string
	}{
		{"single", "single=true", sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Alice"), http.StatusOK, `{"id": 1, "name": "Alice"}`},
		{"single with many", "single=true", customerRows(), http.StatusBadRequest, ""},
		{"single with none", "single=true", sqlmock.NewRows([]string{"id", "name"}), http.StatusNotFound, ""},
		{"maybe single with none", "maybeSingle=true", sqlmock.NewRows([]string{"id", "name"}), http.StatusOK, `null`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			router, mock := newRouter(t)
			mock.ExpectQuery("SELECT").WillReturnRows(tc.rows)

			req := httptest.NewRequest(http.MethodGet, "/customers?"+tc.query, nil)
			w := httptest.NewRecorder()
			router.HandleEntity(w, req)

			require.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, w.Body.String())
			}
		})
	}
}
