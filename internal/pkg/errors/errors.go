package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда действие требует аутентифицированного пользователя.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных
	// (в том числе конфигурационных: вопрос с выбором без списка вариантов).
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния: нарушение уникальности
	// или ссылка на уже удалённую запись.
	ErrConflict = errors.New("resource state conflict")
)
