package repository

import (
	"github.com/yourusername/survey-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(question *entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	// GetBySurveyIDOrdered возвращает вопросы опроса в порядке
	// (category.order, question.order, id) с загруженной категорией
	GetBySurveyIDOrdered(surveyID uint) ([]entity.Question, error)
	CountBySurveyID(surveyID uint) (int64, error)
	Update(question *entity.Question) error
	Delete(id uint) error
}
