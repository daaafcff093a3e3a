package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/internal/domain/repository"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// SurveyRepo реализует repository.SurveyRepository
type SurveyRepo struct {
	db *gorm.DB
}

// NewSurveyRepo создает новый репозиторий опросов
func NewSurveyRepo(db *gorm.DB) *SurveyRepo {
	return &SurveyRepo{db: db}
}

// Create создает новый опрос
func (r *SurveyRepo) Create(survey *entity.Survey) error {
	return mapError(r.db.Omit("Categories", "Questions").Create(survey).Error)
}

// GetByID возвращает опрос по ID вместе с категориями
func (r *SurveyRepo) GetByID(id uint) (*entity.Survey, error) {
	var survey entity.Survey
	err := r.db.
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC NULLS LAST").Order("id ASC")
		}).
		First(&survey, id).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &survey, nil
}

// Update обновляет опрос (без ассоциаций)
func (r *SurveyRepo) Update(survey *entity.Survey) error {
	return mapError(r.db.Omit("Categories", "Questions").Save(survey).Error)
}

// Delete удаляет опрос. Категории, вопросы и ответы удаляются каскадно на уровне БД.
func (r *SurveyRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Survey{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List возвращает страницу опросов и их общее количество
func (r *SurveyRepo) List(filters repository.SurveyFilters, limit, offset int) ([]entity.Survey, int64, error) {
	query := r.db.Model(&entity.Survey{})

	if filters.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var surveys []entity.Survey
	err := query.Order("id ASC").Limit(limit).Offset(offset).Find(&surveys).Error
	if err != nil {
		return nil, 0, err
	}
	return surveys, total, nil
}

// CategoryRepo реализует repository.CategoryRepository
type CategoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepo создает новый репозиторий категорий
func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create создает новую категорию
func (r *CategoryRepo) Create(category *entity.Category) error {
	return mapError(r.db.Create(category).Error)
}

// GetByID возвращает категорию по ID
func (r *CategoryRepo) GetByID(id uint) (*entity.Category, error) {
	var category entity.Category
	if err := r.db.First(&category, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &category, nil
}

// GetBySurveyID возвращает категории опроса в порядке сортировки
func (r *CategoryRepo) GetBySurveyID(surveyID uint) ([]entity.Category, error) {
	var categories []entity.Category
	err := r.db.Where("survey_id = ?", surveyID).
		Order("sort_order ASC NULLS LAST").
		Order("id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// Update обновляет категорию
func (r *CategoryRepo) Update(category *entity.Category) error {
	return mapError(r.db.Save(category).Error)
}

// Delete удаляет категорию. У вопросов категория обнуляется (ON DELETE SET NULL).
func (r *CategoryRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Category{}, id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
