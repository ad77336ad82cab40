package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound - запись с таким id не существует
	ErrNotFound = errors.New("not found")
	// ErrConflict - нарушено ограничение уникальности
	ErrConflict = errors.New("conflict")
)

// ValidationError - некорректные входные данные, до обращения к хранилищу
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on field '%s': %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
