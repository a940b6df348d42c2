package e2e_test

import (
	"net/http"
	"testing"

	"github.com/xcono/sqlfilter/e2e"
)

var id = []string{"id"}

func TestE2EComparison(t *testing.T) {
	suite := e2e.NewTestSuite(t, DefaultTestConfig(t))
	defer suite.Close()

	testCases := []e2e.TestCase{
		{
			Name:        "all_customers",
			Entity:      "customers",
			Body:        `{}`,
			IDs:         []float64{1, 2, 3, 4},
			Description: "No filter, reflected fields and the title mapping",
		},
		{
			Name:   "filter_eq",
			Entity: "customers",
			Body:   `{"filter": {"name": {"eq": "Bob"}}}`,
			IDs:    []float64{2},
		},
		{
			Name:        "contains_underscore",
			Entity:      "customers",
			Body:        `{"filter": {"name": {"contains": "_"}}}`,
			IDs:         []float64{4},
			Description: "LIKE wildcards in values match literally",
		},
		{
			Name:   "ends_with_percent",
			Entity: "customers",
			Body:   `{"filter": {"name": {"ends_with": "%"}}}`,
			IDs:    []float64{4},
		},
		{
			Name:   "starts_with",
			Entity: "customers",
			Body:   `{"filter": {"name": {"startsWith": "Ca"}}}`,
			IDs:    []float64{3},
		},
		{
			Name:   "mapping",
			Entity: "customers",
			Body:   `{"filter": {"title": {"eq": "Carol (customer)"}}}`,
			IDs:    []float64{3},
		},
		{
			Name:   "filter_in",
			Entity: "products",
			Body:   `{"filter": {"code": {"in": ["MUG-1", "TPT-4"]}}}`,
			Keys:   id,
			IDs:    []float64{1, 4},
		},
		{
			Name:        "range_from_to",
			Entity:      "products",
			Body:        `{"filter": {"price": {"range": {"from": 5, "to": 30}}}}`,
			Keys:        id,
			IDs:         []float64{1, 2},
			Description: "from is inclusive, to is exclusive",
		},
		{
			Name:   "range_interval",
			Entity: "products",
			Body:   `{"filter": {"price": {"range": {"interval": "[2,12]"}}}}`,
			Keys:   id,
			IDs:    []float64{1, 2, 3},
		},
		{
			Name:   "not_range",
			Entity: "products",
			Body:   `{"filter": {"price": {"not_range": {"from": 5, "to": 30}}}}`,
			Keys:   id,
			IDs:    []float64{3, 4},
		},
		{
			Name:   "date_range",
			Entity: "products",
			Body:   `{"filter": {"introduced_at": {"range": {"from": "2023-01-01", "to": "2024-01-01"}}}}`,
			Keys:   id,
			IDs:    []float64{1, 2},
		},
		{
			Name:   "null",
			Entity: "products",
			Body:   `{"filter": {"brand": {"null": true}}}`,
			Keys:   id,
			IDs:    []float64{3},
		},
		{
			Name:   "not_null",
			Entity: "orders",
			Body:   `{"filter": {"shipped_at": {"null": false}}}`,
			Keys:   id,
			IDs:    []float64{1, 4},
		},
		{
			Name:   "any_text",
			Entity: "products",
			Body:   `{"filter": {"any_text": {"contains": "PL"}}}`,
			Keys:   id,
			IDs:    []float64{2},
		},
		{
			Name:        "through_junction",
			Entity:      "customers",
			Body:        `{"filter": {"products.name": {"eq": "Teapot"}}}`,
			IDs:         []float64{4},
			Description: "customers, orders, orders_products, products",
		},
		{
			Name:   "through_junction_many",
			Entity: "customers",
			Body:   `{"filter": {"products.brand": {"eq": "Acme"}}}`,
			IDs:    []float64{2, 4},
		},
		{
			Name:        "negated_association",
			Entity:      "customers",
			Body:        `{"filter": {"not": {"products.name": {"eq": "Mug"}}}}`,
			IDs:         []float64{1, 3},
			Description: "customers without orders are kept",
		},
		{
			Name:   "association_in_or",
			Entity: "customers",
			Body:   `{"filter": {"or": {"products.price": {"gt": 20}, "name": {"eq": "Alice"}}}}`,
			IDs:    []float64{1, 4},
		},
		{
			Name:   "reverse_path",
			Entity: "products",
			Body:   `{"filter": {"customers.name": {"eq": "Bob"}}}`,
			Keys:   id,
			IDs:    []float64{1, 2},
		},
		{
			Name:   "orders_by_product",
			Entity: "orders",
			Body:   `{"filter": {"products.code": {"starts_with": "MUG"}}}`,
			Keys:   id,
			IDs:    []float64{1, 3, 4},
		},
		{
			Name:   "empty_result",
			Entity: "orders",
			Body:   `{"filter": {"customers.email": {"null": true}}}`,
			Keys:   id,
			IDs:    []float64{},
		},
		{
			Name:   "sorting_and_paging",
			Entity: "orders",
			Body:   `{"sorting": {"order_by": "title", "direction": "desc"}, "paging": {"limit": 2}}`,
			Keys:   id,
			IDs:    []float64{3, 4},
		},
		{
			Name:   "hidden_column",
			Entity: "customers",
			Body:   `{"filter": {"password": {"eq": "x"}}}`,
			Status: http.StatusBadRequest,
		},
		{
			Name:   "junction_not_available",
			Entity: "customers",
			Body:   `{"filter": {"orders_products.order_id": {"eq": 1}}}`,
			Status: http.StatusBadRequest,
		},
		{
			Name:   "unknown_operator",
			Entity: "products",
			Body:   `{"filter": {"price": {"between": [1, 2]}}}`,
			Status: http.StatusBadRequest,
		},
	}

	suite.RunTestCases(t, testCases)
}
