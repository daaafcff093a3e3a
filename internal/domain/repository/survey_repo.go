package repository

import (
	"github.com/yourusername/survey-api/internal/domain/entity"
)

// SurveyFilters определяет фильтры для списка опросов
type SurveyFilters struct {
	PublishedOnly bool   // Только опубликованные опросы
	Search        string // Поиск по названию/описанию
}

// SurveyRepository определяет методы для работы с опросами
type SurveyRepository interface {
	Create(survey *entity.Survey) error
	GetByID(id uint) (*entity.Survey, error)
	Update(survey *entity.Survey) error
	Delete(id uint) error
	List(filters SurveyFilters, limit, offset int) ([]entity.Survey, int64, error)
}

// CategoryRepository определяет методы для работы с категориями вопросов
type CategoryRepository interface {
	Create(category *entity.Category) error
	GetByID(id uint) (*entity.Category, error)
	GetBySurveyID(surveyID uint) ([]entity.Category, error)
	Update(category *entity.Category) error
	Delete(id uint) error
}
