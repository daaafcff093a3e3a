package repository

import (
	"github.com/yourusername/survey-api/internal/domain/entity"
)

// ResponseRepository определяет методы для работы с ответами на опросы
type ResponseRepository interface {
	// CreateWithAnswers атомарно сохраняет Response и все его ответы.
	// После успешного вызова у response и каждого ответа заполнены ID.
	CreateWithAnswers(response *entity.Response, answers []entity.Answer) error
	GetByInterviewUUID(interviewUUID string) (*entity.Response, error)
	// ListBySurveyID возвращает ответы опроса (с загруженными Answers) и общее количество
	ListBySurveyID(surveyID uint, limit, offset int) ([]entity.Response, int64, error)
	// GetAnswers возвращает все типизированные ответы Response
	GetAnswers(responseID uint) ([]entity.Answer, error)
}
