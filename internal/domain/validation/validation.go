package validation

import "strings"

// FieldError is one rejected input, reported to clients as {code, description}.
type FieldError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Error collects every problem found in a request.
type Error struct {
	Errors []FieldError
}

func (e *Error) Add(code, description string) {
	e.Errors = append(e.Errors, FieldError{Code: code, Description: description})
}

// Err returns nil when nothing was added.
func (e *Error) Err() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Code)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func New(code, description string) *Error {
	return &Error{Errors: []FieldError{{Code: code, Description: description}}}
}
