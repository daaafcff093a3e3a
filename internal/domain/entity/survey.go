package entity

import (
	"time"
)

// Survey представляет опрос
type Survey struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"size:400;not null" json:"name"`
	Description       string     `gorm:"type:text;not null;default:''" json:"description"`
	IsPublished       bool       `gorm:"not null;default:false;index" json:"is_published"`
	NeedLoggedUser    bool       `gorm:"not null;default:false" json:"need_logged_user"`
	DisplayByQuestion bool       `gorm:"not null;default:false" json:"display_by_question"`
	Template          *string    `gorm:"size:255" json:"template,omitempty"`
	Separator         string     `gorm:"size:1;not null;default:','" json:"separator"`
	Categories        []Category `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	Questions         []Question `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Survey) TableName() string {
	return "surveys"
}

// ChoiceSeparator возвращает разделитель вариантов ответа (по умолчанию запятая)
func (s *Survey) ChoiceSeparator() string {
	if s == nil {
		return DefaultSeparator
	}
	return normalizeSeparator(s.Separator)
}

// Category группирует вопросы опроса и задает их порядок
type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:400;not null" json:"name"`
	SurveyID uint   `gorm:"not null;index" json:"survey_id"`
	Order    *int   `gorm:"column:sort_order" json:"order,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Category) TableName() string {
	return "categories"
}
