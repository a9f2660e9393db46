package record

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("record not found")
	ErrNetwork       = errors.New("network error")
	ErrUnknownModule = errors.New("unknown module")
	ErrEditorClosed  = errors.New("editor is closed")
	ErrItemIndex     = errors.New("item index out of range")
)

// ValidationError reports an invalid line-item field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MissingFieldError reports required parent fields left blank on save.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrValidation
}
