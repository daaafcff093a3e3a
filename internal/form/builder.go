package form

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/survey-api/internal/domain/entity"
)

// Options - необязательные параметры построения формы
type Options struct {
	// Step - индекс вопроса в пошаговом режиме
	Step *int
	// CallbackCode - непрозрачный токен, возвращаемый вместе с отправкой
	CallbackCode *string
	// Data - ранее отправленные значения для повторного показа формы
	Data Values
	// InterviewUUID продолжает начатое интервью (пошаговый режим);
	// пустое значение означает новый токен
	InterviewUUID string
}

// Builder строит формы опросов
type Builder struct {
	newToken func() string
}

// BuilderOption настраивает Builder
type BuilderOption func(*Builder)

// WithTokenGenerator подменяет генератор токена интервью
func WithTokenGenerator(gen func() string) BuilderOption {
	return func(b *Builder) {
		b.newToken = gen
	}
}

// NewBuilder создает построитель форм
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{newToken: NewInterviewToken}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewInterviewToken возвращает случайный 128-битный токен в hex (32 символа)
func NewInterviewToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsInterviewToken проверяет формат токена: 32 символа в нижнем регистре hex
func IsInterviewToken(token string) bool {
	if len(token) != 32 {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Build материализует форму для опроса. questions должны быть упорядочены
// (категория, порядок вопроса); user равен nil для анонимного пользователя.
// Вопросы неизвестного типа пропускаются.
func (b *Builder) Build(survey *entity.Survey, questions []entity.Question, user *entity.User, opts Options) *Form {
	f := &Form{
		surveyID:      survey.ID,
		loginRequired: survey.NeedLoggedUser,
		stepMode:      survey.DisplayByQuestion,
		stepsCount:    len(questions),
		interviewUUID: opts.InterviewUUID,
		callbackCode:  copyString(opts.CallbackCode),
	}
	if f.interviewUUID == "" {
		f.interviewUUID = b.newToken()
	}
	if opts.Step != nil {
		step := *opts.Step
		f.step = &step
	}
	if user != nil && user.ID != 0 {
		id := user.ID
		f.userID = &id
	}

	separator := survey.ChoiceSeparator()
	for index := range questions {
		q := &questions[index]
		if f.stepMode && f.step != nil && index != *f.step {
			continue
		}
		handler, err := handlerFor(q.QuestionType)
		if err != nil {
			continue
		}
		field := newField(q, handler.spec(), separator)
		if opts.Data != nil {
			if initial, ok := opts.Data[field.Name]; ok {
				field.Initial = append([]string(nil), initial...)
			}
		}
		f.fields = append(f.fields, field)
		f.handlers = append(f.handlers, handler)
	}
	return f
}

// newField собирает описание поля за один проход
func newField(q *entity.Question, spec fieldSpec, separator string) Field {
	field := Field{
		Name:         FieldName(q.ID),
		QuestionID:   q.ID,
		QuestionType: q.QuestionType,
		Label:        q.Text,
		Kind:         spec.kind,
		Widget:       spec.widget,
		Required:     q.Required,
		Attrs:        map[string]string{},
	}

	if spec.choices {
		parsed := q.GetChoices(separator)
		choices := make([]entity.Choice, 0, len(parsed)+1)
		if spec.placeholder {
			choices = append(choices, entity.Choice{Value: "", Label: EmptyChoiceLabel})
		}
		field.Choices = append(choices, parsed...)
	}

	var classes []string
	if q.Required {
		classes = append(classes, "required")
		field.Attrs["required"] = "true"
	}
	if q.Category != nil {
		field.Category = q.Category.Name
		classes = append(classes, "cat_"+q.Category.Name)
		field.Attrs["category"] = q.Category.Name
	}
	classes = append(classes, spec.classes...)
	if len(classes) > 0 {
		field.Classes = classes
		field.Attrs["class"] = strings.Join(classes, " ")
	}
	return field
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
