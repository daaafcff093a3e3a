package form

import (
	"fmt"

	"github.com/yourusername/survey-api/internal/domain/entity"
)

// StepPathFormat - адрес шага опроса: /api/surveys/<id>/steps/<step>
const StepPathFormat = "/api/surveys/%d/steps/%d"

// Form - построенная форма опроса. После создания не изменяется.
type Form struct {
	surveyID      uint
	loginRequired bool
	stepMode      bool
	step          *int
	stepsCount    int
	interviewUUID string
	userID        *uint
	callbackCode  *string

	fields   []Field
	handlers []fieldHandler
}

// SurveyID возвращает ID опроса
func (f *Form) SurveyID() uint { return f.surveyID }

// LoginRequired сообщает, что опрос доступен только авторизованным
func (f *Form) LoginRequired() bool { return f.loginRequired }

// InterviewUUID возвращает токен интервью этой формы
func (f *Form) InterviewUUID() string { return f.interviewUUID }

// UserID возвращает ID пользователя или nil для анонимного
func (f *Form) UserID() *uint { return f.userID }

// CallbackCode возвращает токен обратного вызова, переданный при построении
func (f *Form) CallbackCode() *string { return copyString(f.callbackCode) }

// StepMode сообщает, показывается ли опрос по одному вопросу
func (f *Form) StepMode() bool { return f.stepMode }

// StepsCount возвращает общее число вопросов опроса
func (f *Form) StepsCount() int { return f.stepsCount }

// Fields возвращает копию списка полей
func (f *Form) Fields() []Field {
	fields := make([]Field, len(f.fields))
	copy(fields, f.fields)
	return fields
}

// Field возвращает поле по имени
func (f *Form) Field(name string) (Field, bool) {
	for _, field := range f.fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// CurrentStep возвращает текущий шаг; ok=false вне пошагового режима
func (f *Form) CurrentStep() (int, bool) {
	if !f.stepMode {
		return 0, false
	}
	if f.step == nil {
		return 0, true
	}
	return *f.step, true
}

// HasNextStep истинно только в пошаговом режиме, если текущий шаг не последний
func (f *Form) HasNextStep() bool {
	step, ok := f.CurrentStep()
	return ok && step < f.stepsCount-1
}

// NextStep возвращает индекс следующего шага
func (f *Form) NextStep() (int, bool) {
	if !f.HasNextStep() {
		return 0, false
	}
	step, _ := f.CurrentStep()
	return step + 1, true
}

// CurrentStepPath возвращает адрес текущего шага
func (f *Form) CurrentStepPath() (string, bool) {
	step, ok := f.CurrentStep()
	if !ok {
		return "", false
	}
	return fmt.Sprintf(StepPathFormat, f.surveyID, step), true
}

// NextStepPath возвращает адрес следующего шага
func (f *Form) NextStepPath() (string, bool) {
	step, ok := f.NextStep()
	if !ok {
		return "", false
	}
	return fmt.Sprintf(StepPathFormat, f.surveyID, step), true
}

// CleanedValue - проверенное значение одного поля
type CleanedValue struct {
	Name       string
	QuestionID uint
	// Value: string, []string или int64 в зависимости от типа вопроса
	Value   interface{}
	handler fieldHandler
}

// NewAnswer создает ответ того варианта, который соответствует типу вопроса
func (v CleanedValue) NewAnswer() entity.Answer {
	return v.handler.answer(v.QuestionID, v.Value)
}

// Cleaned - результат успешной проверки формы
type Cleaned struct {
	CallbackCode *string
	// Values в порядке полей формы; пустые необязательные поля отсутствуют
	Values []CleanedValue
}

// Clean проверяет отправленные данные. Ключи, не соответствующие полям
// формы, игнорируются.
func (f *Form) Clean(data Values) (Cleaned, FieldErrors) {
	cleaned := Cleaned{CallbackCode: f.CallbackCode()}
	if code := data.Get(CallbackField); code != "" {
		cleaned.CallbackCode = &code
	}

	errs := FieldErrors{}
	for i := range f.fields {
		field := &f.fields[i]
		handler := f.handlers[i]
		value, ok, fieldErrs := handler.clean(field, data[field.Name])
		if len(fieldErrs) > 0 {
			errs[field.Name] = fieldErrs
			continue
		}
		if !ok {
			continue
		}
		cleaned.Values = append(cleaned.Values, CleanedValue{
			Name:       field.Name,
			QuestionID: field.QuestionID,
			Value:      value,
			handler:    handler,
		})
	}
	if len(errs) > 0 {
		return Cleaned{}, errs
	}
	return cleaned, nil
}
