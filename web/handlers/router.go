package handlers

import (
	"net/http"
	"strings"

	"github.com/xcono/sqlfilter/builder"
	"github.com/xcono/sqlfilter/web/database"
	"github.com/xcono/sqlfilter/web/query"
	"github.com/xcono/sqlfilter/web/response"
)

// Router handles request routing and delegates to appropriate handlers
type Router struct {
	composer      *builder.Composer
	selectHandler *SelectHandler
}

// NewRouter creates a new request router
func NewRouter(db *database.Executor, composer *builder.Composer) *Router {
	return &Router{
		composer:      composer,
		selectHandler: NewSelectHandler(query.NewExecutor(db, composer)),
	}
}

// HandleEntity handles requests under /{entity}:
//
//	GET  /{entity}          select with query string parameters
//	POST /{entity}/filter   select with a JSON body
//	POST /{entity}/explain  compiled SQL without executing it
func (r *Router) HandleEntity(w http.ResponseWriter, req *http.Request) {
	pathParts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		response.WriteError(w, response.BadRequest("Entity name required", "No entity specified in URL path"))
		return
	}

	entity := pathParts[0]
	if _, ok := r.composer.Definition(entity); !ok {
		response.WriteError(w, response.NotFound("Unknown entity", "Entity "+entity+" is not defined"))
		return
	}

	action := ""
	if len(pathParts) > 1 {
		action = strings.Join(pathParts[1:], "/")
	}

	switch {
	case action == "" && req.Method == http.MethodGet:
		r.selectHandler.Handle(w, req, entity)
	case action == "filter" && req.Method == http.MethodPost:
		r.selectHandler.HandleFilter(w, req, entity)
	case action == "explain" && (req.Method == http.MethodPost || req.Method == http.MethodGet):
		r.selectHandler.HandleExplain(w, req, entity)
	case action == "" || action == "filter" || action == "explain":
		response.WriteError(w, response.MethodNotAllowed(req.Method))
	default:
		response.WriteError(w, response.NotFound("Not found", "Unknown path "+req.URL.Path))
	}
}
