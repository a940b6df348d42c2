package handlers

import (
	"errors"
	"net/http"

	"github.com/xcono/sqlfilter/builder"
	"github.com/xcono/sqlfilter/web/query"
	"github.com/xcono/sqlfilter/web/response"
	"github.com/zeromicro/go-zero/core/logx"
)

// SelectHandler serves filtered selects of one entity
type SelectHandler struct {
	executor *query.Executor
}

// NewSelectHandler creates a new SELECT handler
func NewSelectHandler(executor *query.Executor) *SelectHandler {
	return &SelectHandler{executor: executor}
}

// Handle handles GET requests
func (h *SelectHandler) Handle(w http.ResponseWriter, r *http.Request, entity string) {
	req, err := query.ParseURLParams(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.run(w, r, entity, req)
}

// HandleFilter handles POST requests carrying the filter in the body
func (h *SelectHandler) HandleFilter(w http.ResponseWriter, r *http.Request, entity string) {
	req, err := query.ParseBody(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.run(w, r, entity, req)
}

// HandleExplain returns the compiled SQL and arguments
func (h *SelectHandler) HandleExplain(w http.ResponseWriter, r *http.Request, entity string) {
	var (
		req query.Request
		err error
	)
	if r.Method == http.MethodGet {
		req, err = query.ParseURLParams(r.URL.Query())
	} else {
		req, err = query.ParseBody(r.Body)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	explain, err := h.executor.Explain(entity, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, explain)
}

func (h *SelectHandler) run(w http.ResponseWriter, r *http.Request, entity string, req query.Request) {
	results, err := h.executor.Select(r.Context(), entity, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.executor.HandleSingleRow(w, results, req)
}

// writeError logs err by severity before writing it. Rejected filters
// are the client's problem and only logged at info level.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logx.WithContext(r.Context())

	if errors.Is(err, query.ErrUnknownEntity) {
		err = response.NotFound("Unknown entity", err.Error())
	}

	var re *response.Error
	switch qe, ok := builder.AsQueryArgumentError(err); {
	case ok:
		log.Infof("rejected filter: %s", qe.Message)
	case errors.As(err, &re):
		log.Infof("request failed: %v", re)
	default:
		log.Errorf("query failed: %v", err)
	}

	response.WriteError(w, err)
}
