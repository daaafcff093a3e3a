package form

import (
	"sort"
	"strings"

	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// FieldErrors - ошибки проверки по именам полей
type FieldErrors map[string][]string

// ValidationError - отправка формы отклонена целиком
type ValidationError struct {
	Fields FieldErrors
}

// NewValidationError создает ошибку проверки формы
func NewValidationError(fields FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return "form validation failed: " + strings.Join(parts, "; ")
}

// Unwrap позволяет проверять ошибку через errors.Is(err, apperrors.ErrValidation)
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidation
}
