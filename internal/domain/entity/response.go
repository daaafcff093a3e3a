package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Response - набор ответов на вопросы опроса с уникальным идентификатором интервью
type Response struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SurveyID      uint      `gorm:"not null;index" json:"survey_id"`
	Survey        *Survey   `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	UserID        *uint     `gorm:"index" json:"user_id,omitempty"`
	User          *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	InterviewUUID string    `gorm:"size:36;not null;uniqueIndex" json:"interview_uuid"`
	Answers       []Answer  `gorm:"-" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Response) TableName() string {
	return "responses"
}

// Answer - общий интерфейс пяти типизированных вариантов ответа.
// Реализуется только типами этого пакета.
type Answer interface {
	GetQuestionID() uint
	GetResponseID() uint
	AttachTo(responseID uint)
	// BodyValue возвращает тело ответа: string, []string, int64 или nil
	BodyValue() interface{}
	TableName() string
	isAnswer()
}

// AnswerBase - общие поля ответов. Ответы удаляются каскадно вместе с Response.
type AnswerBase struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Question   *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	ResponseID uint      `gorm:"not null;index" json:"response_id"`
	Response   *Response `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetQuestionID возвращает ID вопроса
func (a *AnswerBase) GetQuestionID() uint { return a.QuestionID }

// GetResponseID возвращает ID ответа-владельца
func (a *AnswerBase) GetResponseID() uint { return a.ResponseID }

// AttachTo привязывает ответ к Response
func (a *AnswerBase) AttachTo(responseID uint) { a.ResponseID = responseID }

func (a *AnswerBase) isAnswer() {}

// AnswerText - ответ на текстовый вопрос (многострочный или однострочный)
type AnswerText struct {
	AnswerBase
	Body *string `gorm:"type:text" json:"body"`
}

// TableName определяет имя таблицы для GORM
func (AnswerText) TableName() string { return "answer_texts" }

// BodyValue возвращает тело ответа
func (a *AnswerText) BodyValue() interface{} { return stringBody(a.Body) }

// AnswerRadio - ответ на вопрос с радиокнопками
type AnswerRadio struct {
	AnswerBase
	Body *string `gorm:"type:text" json:"body"`
}

// TableName определяет имя таблицы для GORM
func (AnswerRadio) TableName() string { return "answer_radios" }

// BodyValue возвращает тело ответа
func (a *AnswerRadio) BodyValue() interface{} { return stringBody(a.Body) }

// AnswerSelect - ответ на выпадающий список (в том числе с картинками)
type AnswerSelect struct {
	AnswerBase
	Body *string `gorm:"type:text" json:"body"`
}

// TableName определяет имя таблицы для GORM
func (AnswerSelect) TableName() string { return "answer_selects" }

// BodyValue возвращает тело ответа
func (a *AnswerSelect) BodyValue() interface{} { return stringBody(a.Body) }

// AnswerSelectMultiple - ответ с множественным выбором.
// Body хранится как JSON-массив выбранных значений в порядке вариантов вопроса.
type AnswerSelectMultiple struct {
	AnswerBase
	Body datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"body"`
}

// TableName определяет имя таблицы для GORM
func (AnswerSelectMultiple) TableName() string { return "answer_select_multiples" }

// BodyValue возвращает тело ответа
func (a *AnswerSelectMultiple) BodyValue() interface{} {
	values := make([]string, len(a.Body))
	copy(values, a.Body)
	return values
}

// AnswerInteger - ответ на числовой вопрос
type AnswerInteger struct {
	AnswerBase
	Body *int64 `json:"body"`
}

// TableName определяет имя таблицы для GORM
func (AnswerInteger) TableName() string { return "answer_integers" }

// BodyValue возвращает тело ответа
func (a *AnswerInteger) BodyValue() interface{} {
	if a.Body == nil {
		return nil
	}
	return *a.Body
}

func stringBody(body *string) interface{} {
	if body == nil {
		return nil
	}
	return *body
}

// NewAnswerText создает текстовый ответ
func NewAnswerText(questionID uint, body string) *AnswerText {
	return &AnswerText{AnswerBase: AnswerBase{QuestionID: questionID}, Body: &body}
}

// NewAnswerRadio создает ответ на радио-вопрос
func NewAnswerRadio(questionID uint, body string) *AnswerRadio {
	return &AnswerRadio{AnswerBase: AnswerBase{QuestionID: questionID}, Body: &body}
}

// NewAnswerSelect создает ответ на выпадающий список
func NewAnswerSelect(questionID uint, body string) *AnswerSelect {
	return &AnswerSelect{AnswerBase: AnswerBase{QuestionID: questionID}, Body: &body}
}

// NewAnswerSelectMultiple создает ответ с множественным выбором
func NewAnswerSelectMultiple(questionID uint, body []string) *AnswerSelectMultiple {
	values := make([]string, len(body))
	copy(values, body)
	return &AnswerSelectMultiple{AnswerBase: AnswerBase{QuestionID: questionID}, Body: datatypes.JSONSlice[string](values)}
}

// NewAnswerInteger создает числовой ответ
func NewAnswerInteger(questionID uint, body int64) *AnswerInteger {
	return &AnswerInteger{AnswerBase: AnswerBase{QuestionID: questionID}, Body: &body}
}

// AnswerModels перечисляет модели ответов (для выборок и миграций)
func AnswerModels() []interface{} {
	return []interface{}{
		&AnswerText{},
		&AnswerRadio{},
		&AnswerSelect{},
		&AnswerSelectMultiple{},
		&AnswerInteger{},
	}
}
