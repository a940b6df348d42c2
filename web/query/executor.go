package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/xcono/sqlfilter/builder"
	"github.com/xcono/sqlfilter/sqlexpr"
	"github.com/xcono/sqlfilter/web/database"
	"github.com/xcono/sqlfilter/web/response"
)

// ErrUnknownEntity is returned for entities the registry does not define.
var ErrUnknownEntity = errors.New("unknown entity")

type (
	Paging struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}

	Sorting struct {
		OrderBy   string `json:"order_by"`
		Direction string `json:"direction"`
	}

	// Request is a parsed select request. A nil Filter selects every row.
	Request struct {
		Filter      builder.Map
		Paging      Paging
		Sorting     Sorting
		Single      bool
		MaybeSingle bool
	}

	body struct {
		Filter  json.RawMessage `json:"filter"`
		Paging  Paging          `json:"paging"`
		Sorting Sorting         `json:"sorting"`
	}
)

// Executor handles query execution
type Executor struct {
	db       *database.Executor
	composer *builder.Composer
}

// NewExecutor creates a new query executor
func NewExecutor(db *database.Executor, composer *builder.Composer) *Executor {
	return &Executor{
		db:       db,
		composer: composer,
	}
}

// ParseURLParams reads filter, order, limit, offset, single and
// maybeSingle from the query string. filter is a JSON object; order is
// "field" or "field.asc|desc".
func ParseURLParams(params url.Values) (Request, error) {
	var req Request

	if raw := params.Get("filter"); raw != "" {
		filter, err := builder.ParseJSON([]byte(raw))
		if err != nil {
			return req, err
		}
		req.Filter = filter
	}

	if order := params.Get("order"); order != "" {
		field, direction, _ := strings.Cut(order, ".")
		req.Sorting = Sorting{OrderBy: field, Direction: direction}
	}

	var err error
	if req.Paging.Limit, err = parseCount(params, "limit"); err != nil {
		return req, err
	}
	if req.Paging.Offset, err = parseCount(params, "offset"); err != nil {
		return req, err
	}

	req.Single = params.Get("single") == "true"
	req.MaybeSingle = params.Get("maybeSingle") == "true"
	return req, nil
}

func parseCount(params url.Values, name string) (int, error) {
	raw := params.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, builder.NewQueryArgumentError(builder.KindValueShape, raw,
			"%s must be a non-negative integer, got '%s'", name, raw)
	}
	return n, nil
}

// ParseBody reads {"filter": {...}, "paging": {...}, "sorting": {...}}.
// The filter keeps its key order.
func ParseBody(r io.Reader) (Request, error) {
	var req Request

	var b body
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return req, builder.NewQueryArgumentError(builder.KindMalformed, nil, "request body is not valid JSON: %v", err)
	}

	if len(b.Filter) > 0 && string(b.Filter) != "null" {
		filter, err := builder.ParseJSON(b.Filter)
		if err != nil {
			return req, err
		}
		req.Filter = filter
	}

	if b.Paging.Limit < 0 || b.Paging.Offset < 0 {
		return req, builder.NewQueryArgumentError(builder.KindValueShape, b.Paging,
			"paging must be non-negative, got limit '%d' offset '%d'", b.Paging.Limit, b.Paging.Offset)
	}

	req.Paging = b.Paging
	req.Sorting = b.Sorting
	return req, nil
}

// Build composes the select for entity: whitelisted fields and mappings,
// the compiled filter, ordering (request or entity default) and paging.
func (e *Executor) Build(entity string, req Request) (*sqlbuilder.SelectBuilder, error) {
	def, ok := e.composer.Definition(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	var columns []sqlexpr.Selection
	seen := map[string]bool{}
	for _, name := range append(def.Fields(), def.MappingNames()...) {
		// a mapping may shadow a column of the same name
		if seen[name] {
			continue
		}
		seen[name] = true

		node, err := def.Column(name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, sqlexpr.Selection{Alias: name, Node: node})
	}
	sb := def.Table().Select(columns...)

	if req.Filter != nil {
		exprs, err := e.composer.Compile(entity, req.Filter)
		if err != nil {
			return nil, err
		}
		sqlexpr.Apply(sb, exprs...)
	}

	sorting := req.Sorting
	if sorting.OrderBy == "" {
		defaults := def.Defaults()
		sorting = Sorting{OrderBy: defaults.OrderBy, Direction: defaults.Direction}
	}
	if sorting.OrderBy != "" {
		node, err := def.Column(sorting.OrderBy)
		if err != nil {
			return nil, err
		}
		var desc bool
		switch strings.ToLower(sorting.Direction) {
		case "", "asc":
		case "desc":
			desc = true
		default:
			return nil, builder.NewQueryArgumentError(builder.KindValueShape, sorting.Direction,
				"direction must be 'asc' or 'desc', got '%s'", sorting.Direction)
		}
		sqlexpr.OrderBy(sb, node, desc)
	}

	if req.Paging.Limit > 0 {
		sb.Limit(req.Paging.Limit)
	}
	if req.Paging.Offset > 0 {
		sb.Offset(req.Paging.Offset)
	}

	return sb, nil
}

// Explain returns the SQL and arguments Select would run.
func (e *Executor) Explain(entity string, req Request) (response.Explain, error) {
	sb, err := e.Build(entity, req)
	if err != nil {
		return response.Explain{}, err
	}

	sql, args := sb.Build()
	if args == nil {
		args = []any{}
	}
	return response.Explain{SQL: sql, Args: args}, nil
}

// Select executes the select for entity
func (e *Executor) Select(ctx context.Context, entity string, req Request) ([]map[string]any, error) {
	sb, err := e.Build(entity, req)
	if err != nil {
		return nil, err
	}

	sql, args := sb.Build()
	return e.db.Select(ctx, sql, args...)
}

// HandleSingleRow handles single row requests
func (e *Executor) HandleSingleRow(w http.ResponseWriter, results []map[string]any, req Request) {
	if req.Single {
		if len(results) == 0 {
			response.WriteError(w, response.NotFound("No rows found", "Single row requested but no results"))
			return
		}
		if len(results) > 1 {
			response.WriteError(w, response.BadRequest("Multiple rows found", "Single row requested but multiple results returned"))
			return
		}
		response.WriteSingle(w, results[0])
		return
	}

	if req.MaybeSingle {
		if len(results) == 0 {
			response.WriteNull(w)
			return
		}
		if len(results) > 1 {
			response.WriteError(w, response.BadRequest("Multiple rows found", "MaybeSingle row requested but multiple results returned"))
			return
		}
		response.WriteSingle(w, results[0])
		return
	}

	response.WriteRows(w, results)
}
