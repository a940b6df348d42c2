package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xcono/sqlfilter/builder"
)

// Error is a request failure that already knows its HTTP status.
type Error struct {
	Status  int
	Message string
	Details string
}

func (e *Error) Error() string {
	return e.Message + ": " + e.Details
}

// BadRequest is a 400 with a message and details.
func BadRequest(message, details string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Details: details}
}

// NotFound is a 404 with a message and details.
func NotFound(message, details string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message, Details: details}
}

// MethodNotAllowed is a 405 for method.
func MethodNotAllowed(method string) *Error {
	return &Error{
		Status:  http.StatusMethodNotAllowed,
		Message: "Method not allowed",
		Details: fmt.Sprintf("Method %s not supported", method),
	}
}

// WriteError writes err as a JSON error body.
//
// A rejected filter is a 400 whose code is the error kind and whose hint
// is the offending fragment. An *Error keeps its own status and any other
// error is reported as a failed database query.
func WriteError(w http.ResponseWriter, err error) {
	if qe, ok := builder.AsQueryArgumentError(err); ok {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: qe.Message,
			Code:  qe.Kind.String(),
			Hint:  qe.Fragment,
		})
		return
	}

	var re *Error
	if !errors.As(err, &re) {
		re = &Error{Status: http.StatusInternalServerError, Message: "Database query failed", Details: err.Error()}
	}
	WriteJSON(w, re.Status, Response{
		Error:   re.Message,
		Code:    fmt.Sprintf("HTTP%d", re.Status),
		Details: re.Details,
	})
}
