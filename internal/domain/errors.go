package domain

import (
	"fmt"
	"strings"
)

// FieldError describes one rejected request field
type FieldError struct {
	Value    any    `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Location string `json:"location"`
}

// ValidationError collects every field that failed validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	params := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		params[i] = f.Param
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(params, ", "))
}
