package entity

import (
	"strings"

	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// DefaultSeparator используется, когда у опроса не задан разделитель вариантов
const DefaultSeparator = ","

// ChoiceListMessage - фиксированный текст ошибки для вопроса с выбором без списка вариантов
const ChoiceListMessage = "The selected field requires an associated list of choices. " +
	"Choices must contain more than one item."

// Choice - вариант ответа: значение и подпись для отображения
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChoiceListError возвращается ValidateChoiceList.
// errors.Is(err, apperrors.ErrValidation) == true.
type ChoiceListError struct {
	Separator string
	Count     int
}

func (e *ChoiceListError) Error() string {
	return ChoiceListMessage
}

func (e *ChoiceListError) Unwrap() error {
	return apperrors.ErrValidation
}

func normalizeSeparator(separator string) string {
	if separator == "" {
		return DefaultSeparator
	}
	return separator
}

// ParseChoices разбивает текст на варианты по разделителю.
// Каждый кусок обрезается от пробелов и используется и как значение, и как подпись.
// Порядок сохраняется, дубликаты не удаляются.
func ParseChoices(blob, separator string) []Choice {
	pieces := strings.Split(blob, normalizeSeparator(separator))
	choices := make([]Choice, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		choices = append(choices, Choice{Value: p, Label: p})
	}
	return choices
}

// ValidateChoiceList проверяет, что текст содержит минимум два варианта.
func ValidateChoiceList(blob, separator string) error {
	count := len(strings.Split(blob, normalizeSeparator(separator)))
	if count < 2 {
		return &ChoiceListError{Separator: separator, Count: count}
	}
	return nil
}
