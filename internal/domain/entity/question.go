package entity

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// QuestionType - тип вопроса (закрытое перечисление)
type QuestionType string

// Типы вопросов
const (
	QuestionTypeText           QuestionType = "text"
	QuestionTypeShortText      QuestionType = "short-text"
	QuestionTypeRadio          QuestionType = "radio"
	QuestionTypeSelect         QuestionType = "select"
	QuestionTypeSelectImage    QuestionType = "select_image"
	QuestionTypeSelectMultiple QuestionType = "select-multiple"
	QuestionTypeInteger        QuestionType = "integer"
)

// QuestionTypes перечисляет все типы в порядке отображения в админке
var QuestionTypes = []QuestionType{
	QuestionTypeText,
	QuestionTypeShortText,
	QuestionTypeRadio,
	QuestionTypeSelect,
	QuestionTypeSelectMultiple,
	QuestionTypeSelectImage,
	QuestionTypeInteger,
}

// IsValid проверяет, что тип входит в перечисление
func (t QuestionType) IsValid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasChoices возвращает true для типов, использующих список вариантов
func (t QuestionType) HasChoices() bool {
	switch t {
	case QuestionTypeRadio, QuestionTypeSelect, QuestionTypeSelectImage, QuestionTypeSelectMultiple:
		return true
	}
	return false
}

// RequiresChoiceList возвращает true для типов, которым при сохранении
// обязателен список минимум из двух вариантов.
func (t QuestionType) RequiresChoiceList() bool {
	switch t {
	case QuestionTypeRadio, QuestionTypeSelect, QuestionTypeSelectMultiple:
		return true
	}
	return false
}

// Question представляет вопрос опроса
type Question struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Text         string       `gorm:"type:text;not null" json:"text"`
	Order        int          `gorm:"column:sort_order;not null;default:0" json:"order"`
	Required     bool         `gorm:"not null;default:false" json:"required"`
	CategoryID   *uint        `gorm:"index" json:"category_id,omitempty"`
	Category     *Category    `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	SurveyID     uint         `gorm:"not null;index" json:"survey_id"`
	Survey       *Survey      `gorm:"foreignKey:SurveyID" json:"-"`
	QuestionType QuestionType `gorm:"size:200;not null;default:'text'" json:"question_type"`
	// Choices используется только для типов с вариантами ответа
	Choices   *string   `gorm:"type:text" json:"choices,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// ChoicesText возвращает сырой текст вариантов ("" если не задан)
func (q *Question) ChoicesText() string {
	if q.Choices == nil {
		return ""
	}
	return *q.Choices
}

// GetChoices разбирает варианты ответа разделителем опроса
func (q *Question) GetChoices(separator string) []Choice {
	return ParseChoices(q.ChoicesText(), separator)
}

// Validate проверяет вопрос перед сохранением, separator - разделитель опроса.
func (q *Question) Validate(separator string) error {
	if !q.QuestionType.IsValid() {
		return fmt.Errorf("unknown question type %q: %w", q.QuestionType, ErrInvalidQuestionType)
	}
	if q.QuestionType.RequiresChoiceList() {
		return ValidateChoiceList(q.ChoicesText(), separator)
	}
	return nil
}

// BeforeSave не дает сохранить вопрос с выбором без корректного списка вариантов.
// Разделитель берется из опроса: из загруженной ассоциации или запросом в той же транзакции.
func (q *Question) BeforeSave(tx *gorm.DB) error {
	if !q.QuestionType.RequiresChoiceList() {
		return q.Validate(DefaultSeparator)
	}

	separator := ""
	if q.Survey != nil {
		separator = q.Survey.Separator
	} else if tx != nil {
		err := tx.Session(&gorm.Session{NewDB: true}).
			Model(&Survey{}).
			Select("separator").
			Where("id = ?", q.SurveyID).
			Scan(&separator).Error
		if err != nil {
			return fmt.Errorf("failed to load survey separator: %w", err)
		}
	}
	return q.Validate(separator)
}
