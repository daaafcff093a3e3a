package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/survey-api/internal/domain/entity"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос. Список вариантов проверяется хуком BeforeSave.
func (r *QuestionRepo) Create(question *entity.Question) error {
	return mapError(r.db.Omit("Survey", "Category").Create(question).Error)
}

// GetByID возвращает вопрос по ID вместе с категорией
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.Preload("Category").First(&question, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &question, nil
}

// GetBySurveyIDOrdered возвращает вопросы опроса, упорядоченные по
// порядку категории (без категории - в конце), затем по порядку вопроса
func (r *QuestionRepo) GetBySurveyIDOrdered(surveyID uint) ([]entity.Question, error) {
	var questions []entity.Question
	if err := orderedQuestions(r.db.Preload("Category"), surveyID).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// orderedQuestions задает порядок вопросов опроса: категория (NULL в конце),
// порядок вопроса, id
func orderedQuestions(db *gorm.DB, surveyID uint) *gorm.DB {
	return db.
		Joins("LEFT JOIN categories ON categories.id = questions.category_id").
		Where("questions.survey_id = ?", surveyID).
		Order("categories.sort_order ASC NULLS LAST").
		Order("questions.sort_order ASC").
		Order("questions.id ASC")
}

// CountBySurveyID возвращает количество вопросов в опросе
func (r *QuestionRepo) CountBySurveyID(surveyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).Where("survey_id = ?", surveyID).Count(&count).Error
	return count, err
}

// Update обновляет вопрос
func (r *QuestionRepo) Update(question *entity.Question) error {
	return mapError(r.db.Omit("Survey", "Category").Save(question).Error)
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Question{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
