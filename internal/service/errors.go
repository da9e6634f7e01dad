package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

const NonFieldErrors = "non_field_errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrNoRatings   = errors.New("product has no ratings to average")
	ErrInactive    = errors.New("user inactive or deleted")
	ErrBadPassword = errors.New("password does not match")
)

// ValidationError carries field-level messages. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Fields map[string][]string
	Cause  error
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func NonFieldError(msg string) *ValidationError {
	v := NewValidationError()
	v.Add(NonFieldErrors, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// duplicate converts a unique-constraint violation that raced past a
// pre-check into the same validation error the pre-check would return.
func duplicate(err error, field, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		v := NewValidationError()
		v.Add(field, msg)
		return v
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
