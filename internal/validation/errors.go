package validation

import (
	"fmt"
	"strings"
)

// FieldError pins one violated rule to the field that caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects every violated rule, never just the first.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *Errors) add(field, format string, args ...any) {
	*e = append(*e, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// AsErrors unwraps err into an Errors list, if it is one.
func AsErrors(err error) (Errors, bool) {
	verr, ok := err.(Errors)
	return verr, ok
}
