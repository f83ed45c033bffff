package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound - идентификатор не указывает на живой (не удаленный) объект
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSlug - уникальный индекс по slug отклонил запись
	ErrDuplicateSlug = errors.New("duplicate slug")
	// ErrValidationFailed - входные данные не прошли проверку
	ErrValidationFailed = errors.New("validation failed")
	// ErrTransactionAborted - любая ошибка внутри атомарной мутации
	ErrTransactionAborted = errors.New("transaction aborted")
)

// ValidationError несет имя поля и причину, errors.Is(err, ErrValidationFailed) == true
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Aborted оборачивает причину так, что errors.Is совпадает и с ErrTransactionAborted, и с самой причиной
func Aborted(cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, ErrTransactionAborted) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrTransactionAborted, cause)
}
