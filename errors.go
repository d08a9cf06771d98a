package schemaform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/schemaform/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	// Merge (allOf intersection)
	CodeEmptyEnumIntersection = "EMPTY_ENUM_INTERSECTION"
	CodeConstConflict         = "CONST_CONFLICT"
	CodeInvalidRange          = "INVALID_RANGE"
	CodeIncompatibleType      = "INCOMPATIBLE_TYPE"
	// Expression compilation
	CodeInvalidExpression = "INVALID_EXPRESSION"
	CodeObservedValues    = "OBSERVED_VALUES"
	// Schema shape and loading
	CodeInvalidArraySchema = "INVALID_ARRAY_SCHEMA"
	CodeInvalidSchema      = "INVALID_SCHEMA"
	CodeDuplicateKey       = "DUPLICATE_KEY"
)

// Error is a structured engine error. Code is stable and safe to branch on;
// Details carries the offending schema fragments or values.
type Error struct {
	Code    string
	Message string
	Path    string // JSON Pointer of the offending schema location, when known.
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(e.Code)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, " (%v)", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code, so callers can
// match with errors.Is(err, &schemaform.Error{Code: ...}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError builds an Error whose message comes from the current i18n
// translator. kv are alternating detail keys and values.
func NewError(code string, kv ...any) *Error {
	details := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		details[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return &Error{Code: code, Message: i18n.T(code, stringData(details)), Details: details}
}

// Errorf builds an Error with an explicit message.
func Errorf(code string, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// WithDetails returns e after merging kv into its details.
func (e *Error) WithDetails(kv ...any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Details[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return e
}

// At returns e after setting its path.
func (e *Error) At(path string) *Error {
	e.Path = path
	return e
}

// Errors is a collection of engine errors that implements error.
type Errors []*Error

// Error summarizes the first few errors.
func (es Errors) Error() string {
	if len(es) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(es), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(es[i].Error())
	}
	if len(es) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(es))
	}
	return b.String()
}

// AsError extracts an *Error from err using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries an *Error with the given code.
func HasCode(err error, code string) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

func stringData(details map[string]any) map[string]string {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]string, len(details))
	for k, v := range details {
		out[k] = fmt.Sprint(v)
	}
	return out
}
