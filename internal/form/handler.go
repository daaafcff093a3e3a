package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/survey-api/internal/domain/entity"
)

// Сообщения ошибок полей
const (
	MsgRequired      = "This field is required."
	MsgInvalidNumber = "Enter a whole number."
	msgInvalidChoice = "Select a valid choice. %s is not one of the available choices."
)

// fieldSpec - конфигурация поля для типа вопроса
type fieldSpec struct {
	kind        Kind
	widget      Widget
	classes     []string
	placeholder bool // пустой вариант в начале списка
	choices     bool
}

// fieldHandler описывает поведение поля для одного типа вопроса:
// как его отображать, как проверять значение и какой ответ сохранять.
type fieldHandler interface {
	spec() fieldSpec
	// clean проверяет сырые значения; ok=false означает "ответа нет"
	clean(f *Field, raw []string) (value interface{}, ok bool, errs []string)
	answer(questionID uint, value interface{}) entity.Answer
}

// handlerFor выбирает обработчик по типу вопроса
func handlerFor(t entity.QuestionType) (fieldHandler, error) {
	switch t {
	case entity.QuestionTypeText:
		return textHandler{multiline: true}, nil
	case entity.QuestionTypeShortText:
		return textHandler{}, nil
	case entity.QuestionTypeRadio:
		return radioHandler{}, nil
	case entity.QuestionTypeSelect:
		return selectHandler{}, nil
	case entity.QuestionTypeSelectImage:
		return selectHandler{image: true}, nil
	case entity.QuestionTypeSelectMultiple:
		return multiSelectHandler{}, nil
	case entity.QuestionTypeInteger:
		return integerHandler{}, nil
	}
	return nil, fmt.Errorf("question type %q: %w", t, entity.ErrInvalidQuestionType)
}

func lastValue(raw []string) string {
	for i := len(raw) - 1; i >= 0; i-- {
		if v := strings.TrimSpace(raw[i]); v != "" {
			return v
		}
	}
	return ""
}

func requiredOrEmpty(f *Field) (interface{}, bool, []string) {
	if f.Required {
		return nil, false, []string{MsgRequired}
	}
	return nil, false, nil
}

func invalidChoice(value string) string {
	return fmt.Sprintf(msgInvalidChoice, value)
}

func hasChoice(choices []entity.Choice, value string) bool {
	for _, c := range choices {
		if c.Value != "" && c.Value == value {
			return true
		}
	}
	return false
}

type textHandler struct {
	multiline bool
}

func (h textHandler) spec() fieldSpec {
	if h.multiline {
		return fieldSpec{kind: KindText, widget: WidgetTextarea}
	}
	return fieldSpec{kind: KindText, widget: WidgetText}
}

func (textHandler) clean(f *Field, raw []string) (interface{}, bool, []string) {
	value := lastValue(raw)
	if value == "" {
		return requiredOrEmpty(f)
	}
	return value, true, nil
}

func (textHandler) answer(questionID uint, value interface{}) entity.Answer {
	return entity.NewAnswerText(questionID, value.(string))
}

type integerHandler struct{}

func (integerHandler) spec() fieldSpec {
	return fieldSpec{kind: KindInteger, widget: WidgetNumber}
}

func (integerHandler) clean(f *Field, raw []string) (interface{}, bool, []string) {
	value := lastValue(raw)
	if value == "" {
		return requiredOrEmpty(f)
	}
	n, err := strconv.ParseInt(wholeNumber(value), 10, 64)
	if err != nil {
		return nil, false, []string{MsgInvalidNumber}
	}
	return n, true, nil
}

// wholeNumber отбрасывает нулевую дробную часть: "3.0" и "3." означают 3
func wholeNumber(value string) string {
	if dot := strings.IndexByte(value, '.'); dot >= 0 && strings.Trim(value[dot+1:], "0") == "" {
		return value[:dot]
	}
	return value
}

func (integerHandler) answer(questionID uint, value interface{}) entity.Answer {
	return entity.NewAnswerInteger(questionID, value.(int64))
}

type radioHandler struct{}

func (radioHandler) spec() fieldSpec {
	return fieldSpec{
		kind:    KindChoice,
		widget:  WidgetRadio,
		classes: []string{"fs-radio-group", "fs-radio-custom", "clearfix"},
		choices: true,
	}
}

func (radioHandler) clean(f *Field, raw []string) (interface{}, bool, []string) {
	value := lastValue(raw)
	if value == "" {
		return requiredOrEmpty(f)
	}
	if !hasChoice(f.Choices, value) {
		return nil, false, []string{invalidChoice(value)}
	}
	return value, true, nil
}

func (radioHandler) answer(questionID uint, value interface{}) entity.Answer {
	return entity.NewAnswerRadio(questionID, value.(string))
}

// selectHandler обслуживает выпадающий список и список с картинками.
// Для картинок клиент отправляет "значение:ссылка", сохраняется только значение.
type selectHandler struct {
	image bool
}

func (h selectHandler) spec() fieldSpec {
	if h.image {
		return fieldSpec{kind: KindChoice, widget: WidgetImageSelect, placeholder: true, choices: true}
	}
	return fieldSpec{
		kind:        KindChoice,
		widget:      WidgetSelect,
		classes:     []string{"cs-select", "cs-skin-boxes"},
		placeholder: true,
		choices:     true,
	}
}

func (h selectHandler) clean(f *Field, raw []string) (interface{}, bool, []string) {
	submitted := lastValue(raw)
	if submitted == "" {
		return requiredOrEmpty(f)
	}
	if !h.image {
		if !hasChoice(f.Choices, submitted) {
			return nil, false, []string{invalidChoice(submitted)}
		}
		return submitted, true, nil
	}

	value := imageValue(submitted)
	if value == "" {
		return requiredOrEmpty(f)
	}
	for _, c := range f.Choices {
		if c.Value != "" && imageValue(c.Value) == value {
			return value, true, nil
		}
	}
	return nil, false, []string{invalidChoice(submitted)}
}

func (selectHandler) answer(questionID uint, value interface{}) entity.Answer {
	return entity.NewAnswerSelect(questionID, value.(string))
}

// imageValue отбрасывает ссылку на картинку из "значение:ссылка"
func imageValue(s string) string {
	value, _, _ := strings.Cut(s, ":")
	return strings.TrimSpace(value)
}

type multiSelectHandler struct{}

func (multiSelectHandler) spec() fieldSpec {
	return fieldSpec{kind: KindMultiChoice, widget: WidgetCheckboxMultiple, choices: true}
}

// clean возвращает выбранные значения в порядке вариантов вопроса, без повторов
func (multiSelectHandler) clean(f *Field, raw []string) (interface{}, bool, []string) {
	selected := make(map[string]bool, len(raw))
	var errs []string
	for _, r := range raw {
		v := strings.TrimSpace(r)
		if v == "" || selected[v] {
			continue
		}
		if !hasChoice(f.Choices, v) {
			errs = append(errs, invalidChoice(v))
			continue
		}
		selected[v] = true
	}
	if len(errs) > 0 {
		return nil, false, errs
	}
	if len(selected) == 0 {
		return requiredOrEmpty(f)
	}

	values := make([]string, 0, len(selected))
	for _, c := range f.Choices {
		if selected[c.Value] {
			values = append(values, c.Value)
			delete(selected, c.Value)
		}
	}
	return values, true, nil
}

func (multiSelectHandler) answer(questionID uint, value interface{}) entity.Answer {
	return entity.NewAnswerSelectMultiple(questionID, value.([]string))
}
