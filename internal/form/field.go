// Package form строит динамические формы опросов: одно поле на видимый
// вопрос, тип и ограничения поля определяются типом вопроса.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/survey-api/internal/domain/entity"
)

// CallbackField - скрытое поле, в котором передается токен обратного вызова
const CallbackField = "tanuki_callback_code"

const fieldPrefix = "question_"

// EmptyChoiceLabel - подпись пустого варианта выпадающих списков
const EmptyChoiceLabel = "-------------"

// Kind - вид значения поля
type Kind string

// Виды полей
const (
	KindText        Kind = "text"
	KindChoice      Kind = "choice"
	KindMultiChoice Kind = "multi_choice"
	KindInteger     Kind = "integer"
)

// Widget - способ отображения поля на клиенте
type Widget string

// Виджеты
const (
	WidgetTextarea         Widget = "textarea"
	WidgetText             Widget = "text"
	WidgetRadio            Widget = "radio"
	WidgetSelect           Widget = "select"
	WidgetImageSelect      Widget = "image-select"
	WidgetCheckboxMultiple Widget = "checkbox-multiple"
	WidgetNumber           Widget = "number"
)

// Field - неизменяемое описание поля формы, построенное один раз по вопросу
type Field struct {
	Name         string              `json:"name"`
	QuestionID   uint                `json:"question_id"`
	QuestionType entity.QuestionType `json:"question_type"`
	Label        string              `json:"label"`
	Kind         Kind                `json:"kind"`
	Widget       Widget              `json:"widget"`
	Required     bool                `json:"required"`
	Choices      []entity.Choice     `json:"choices,omitempty"`
	// Category - имя категории вопроса, пустое если категории нет
	Category string            `json:"category,omitempty"`
	Classes  []string          `json:"classes,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	// Initial - ранее отправленные значения (при повторном показе формы)
	Initial []string `json:"initial,omitempty"`
}

// FieldName возвращает имя поля для вопроса
func FieldName(questionID uint) string {
	return fieldPrefix + strconv.FormatUint(uint64(questionID), 10)
}

// ParseFieldName извлекает ID вопроса из имени поля
func ParseFieldName(name string) (uint, bool) {
	rest, ok := strings.CutPrefix(name, fieldPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Values - отправленные данные формы: имя поля -> значения
type Values map[string][]string

// Get возвращает последнее непустое значение ключа
func (v Values) Get(key string) string {
	values := v[key]
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != "" {
			return values[i]
		}
	}
	return ""
}

// Set заменяет значения ключа одним значением
func (v Values) Set(key, value string) {
	v[key] = []string{value}
}

// Add добавляет значение к ключу
func (v Values) Add(key, value string) {
	v[key] = append(v[key], value)
}

// ValuesFromMap переводит JSON-объект (строки, числа, массивы) в Values
func ValuesFromMap(m map[string]interface{}) (Values, error) {
	values := make(Values, len(m))
	for key, raw := range m {
		switch typed := raw.(type) {
		case nil:
			values[key] = nil
		case []interface{}:
			for _, item := range typed {
				s, err := scalarString(item)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", key, err)
				}
				values.Add(key, s)
			}
		default:
			s, err := scalarString(typed)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			values.Set(key, s)
		}
	}
	return values, nil
}

func scalarString(v interface{}) (string, error) {
	switch typed := v.(type) {
	case string:
		return typed, nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(typed), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}
