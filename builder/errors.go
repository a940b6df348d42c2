package builder

import (
	"errors"
	"fmt"
)

// Kind groups filter errors by what went wrong.
type Kind int

const (
	// KindMalformed is a grammar problem: empty maps, too few combiner entries.
	KindMalformed Kind = iota + 1
	// KindUnknownSymbol is an unrecognised combiner, field or operator name.
	KindUnknownSymbol
	// KindSchema is a field or association the entity does not allow.
	KindSchema
	// KindValueShape is an operand of the wrong type or form.
	KindValueShape
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindUnknownSymbol:
		return "unknown_symbol"
	case KindSchema:
		return "schema"
	case KindValueShape:
		return "value_shape"
	default:
		return "unknown"
	}
}

// QueryArgumentError reports a filter that cannot be compiled.
// Fragment holds the offending part of the filter, when known.
type QueryArgumentError struct {
	Kind     Kind
	Message  string
	Fragment any
}

func (e *QueryArgumentError) Error() string {
	return e.Message
}

func argumentError(kind Kind, fragment any, format string, args ...any) *QueryArgumentError {
	return &QueryArgumentError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Fragment: fragment,
	}
}

// AsQueryArgumentError unwraps err into a *QueryArgumentError.
func AsQueryArgumentError(err error) (*QueryArgumentError, bool) {
	var qe *QueryArgumentError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// NewQueryArgumentError builds an error for request arguments rejected
// outside the compiler, such as paging and sorting.
func NewQueryArgumentError(kind Kind, fragment any, format string, args ...any) *QueryArgumentError {
	return argumentError(kind, fragment, format, args...)
}
