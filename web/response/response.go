package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zeromicro/go-zero/core/logx"
)

// Response represents a standardized error response
type Response struct {
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Hint    any    `json:"hint,omitempty"`
}

// Explain is the compiled form of a filter.
type Explain struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// WriteJSON writes data with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logx.Errorf("failed to encode response: %v", err)
	}
}

// WriteRows writes the result rows directly as an array
func WriteRows(w http.ResponseWriter, rows []map[string]any) {
	w.Header().Set("X-Total-Count", strconv.Itoa(len(rows)))
	WriteJSON(w, http.StatusOK, rows)
}

// WriteSingle writes a single object response (for single/maybeSingle)
func WriteSingle(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteNull writes a null response (for maybeSingle with no results)
func WriteNull(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, nil)
}
