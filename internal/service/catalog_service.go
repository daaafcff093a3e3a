package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/internal/domain/repository"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// SurveyInput - данные для создания или изменения опроса
type SurveyInput struct {
	Name              string  `validate:"required,max=400"`
	Description       string  `validate:"max=10000"`
	IsPublished       bool
	NeedLoggedUser    bool
	DisplayByQuestion bool
	Template          *string `validate:"omitempty,max=255"`
	// Separator - один символ; пустое значение означает запятую
	Separator string `validate:"omitempty,len=1"`
}

// CategoryInput - данные категории
type CategoryInput struct {
	Name  string `validate:"required,max=400"`
	Order *int
}

// QuestionInput - данные вопроса
type QuestionInput struct {
	Text         string              `validate:"required"`
	Order        int                 `validate:"gte=0"`
	Required     bool
	CategoryID   *uint
	QuestionType entity.QuestionType `validate:"required"`
	Choices      *string
}

// questionsCacheKey - ключ кеша упорядоченных вопросов опроса
func questionsCacheKey(surveyID uint) string {
	return fmt.Sprintf("survey:%d:questions", surveyID)
}

// CatalogService управляет опросами, категориями и вопросами
type CatalogService struct {
	surveyRepo   repository.SurveyRepository
	categoryRepo repository.CategoryRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	questionsTTL time.Duration
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewCatalogService создает сервис каталога. cacheRepo может быть nil.
func NewCatalogService(
	surveyRepo repository.SurveyRepository,
	categoryRepo repository.CategoryRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	questionsTTL time.Duration,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		surveyRepo:   surveyRepo,
		categoryRepo: categoryRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		questionsTTL: questionsTTL,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger.With(zap.String("component", "catalog_service")),
	}
}

// validateStruct переводит ошибки validator в ErrValidation
func (s *CatalogService) validateStruct(input interface{}) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(msgs, ", "))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}

// CreateSurvey создает опрос
func (s *CatalogService) CreateSurvey(input SurveyInput) (*entity.Survey, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	survey := &entity.Survey{}
	applySurveyInput(survey, input)

	if err := s.surveyRepo.Create(survey); err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}
	s.logger.Info("survey created", zap.Uint("survey_id", survey.ID))
	return survey, nil
}

// UpdateSurvey изменяет опрос. При смене разделителя все вопросы
// с выбором перепроверяются с новым разделителем.
func (s *CatalogService) UpdateSurvey(id uint, input SurveyInput) (*entity.Survey, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	survey, err := s.surveyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	oldSeparator := survey.ChoiceSeparator()
	applySurveyInput(survey, input)
	if newSeparator := survey.ChoiceSeparator(); newSeparator != oldSeparator {
		questions, err := s.questionRepo.GetBySurveyIDOrdered(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions: %w", err)
		}
		for i := range questions {
			if err := questions[i].Validate(newSeparator); err != nil {
				return nil, fmt.Errorf("question %d is invalid with separator %q: %w", questions[i].ID, newSeparator, err)
			}
		}
	}

	if err := s.surveyRepo.Update(survey); err != nil {
		return nil, fmt.Errorf("failed to update survey: %w", err)
	}
	s.invalidateQuestions(id)
	return survey, nil
}

func applySurveyInput(survey *entity.Survey, input SurveyInput) {
	survey.Name = strings.TrimSpace(input.Name)
	survey.Description = input.Description
	survey.IsPublished = input.IsPublished
	survey.NeedLoggedUser = input.NeedLoggedUser
	survey.DisplayByQuestion = input.DisplayByQuestion
	survey.Template = input.Template
	survey.Separator = input.Separator
	if survey.Separator == "" {
		survey.Separator = entity.DefaultSeparator
	}
}

// GetSurvey возвращает опрос
func (s *CatalogService) GetSurvey(id uint) (*entity.Survey, error) {
	return s.surveyRepo.GetByID(id)
}

// ListSurveys возвращает страницу опросов
func (s *CatalogService) ListSurveys(publishedOnly bool, search string, page, pageSize int) ([]entity.Survey, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	filters := repository.SurveyFilters{PublishedOnly: publishedOnly, Search: search}
	surveys, total, err := s.surveyRepo.List(filters, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list surveys: %w", err)
	}
	return surveys, total, nil
}

// CountQuestions возвращает количество вопросов опроса
func (s *CatalogService) CountQuestions(surveyID uint) (int64, error) {
	count, err := s.questionRepo.CountBySurveyID(surveyID)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// DeleteSurvey удаляет опрос вместе с вопросами и ответами
func (s *CatalogService) DeleteSurvey(id uint) error {
	if err := s.surveyRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateQuestions(id)
	s.logger.Info("survey deleted", zap.Uint("survey_id", id))
	return nil
}

// CreateCategory добавляет категорию в опрос
func (s *CatalogService) CreateCategory(surveyID uint, input CategoryInput) (*entity.Category, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	if _, err := s.surveyRepo.GetByID(surveyID); err != nil {
		return nil, err
	}
	category := &entity.Category{Name: strings.TrimSpace(input.Name), SurveyID: surveyID, Order: input.Order}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.invalidateQuestions(surveyID)
	return category, nil
}

// ListCategories возвращает категории опроса
func (s *CatalogService) ListCategories(surveyID uint) ([]entity.Category, error) {
	return s.categoryRepo.GetBySurveyID(surveyID)
}

// UpdateCategory изменяет категорию
func (s *CatalogService) UpdateCategory(id uint, input CategoryInput) (*entity.Category, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(input.Name)
	category.Order = input.Order
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	s.invalidateQuestions(category.SurveyID)
	return category, nil
}

// DeleteCategory удаляет категорию; вопросы остаются без категории
func (s *CatalogService) DeleteCategory(id uint) error {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateQuestions(category.SurveyID)
	return nil
}

// CreateQuestion добавляет вопрос в опрос. Список вариантов проверяется
// разделителем опроса до обращения к хранилищу.
func (s *CatalogService) CreateQuestion(surveyID uint, input QuestionInput) (*entity.Question, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	survey, err := s.surveyRepo.GetByID(surveyID)
	if err != nil {
		return nil, err
	}

	question := &entity.Question{SurveyID: surveyID}
	applyQuestionInput(question, input)
	if err := s.checkQuestion(survey, question); err != nil {
		return nil, err
	}

	// Ассоциация нужна хуку BeforeSave для разделителя
	question.Survey = survey
	err = s.questionRepo.Create(question)
	question.Survey = nil
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	s.invalidateQuestions(surveyID)
	return question, nil
}

// UpdateQuestion изменяет вопрос
func (s *CatalogService) UpdateQuestion(id uint, input QuestionInput) (*entity.Question, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	survey, err := s.surveyRepo.GetByID(question.SurveyID)
	if err != nil {
		return nil, err
	}

	applyQuestionInput(question, input)
	question.Category = nil
	if err := s.checkQuestion(survey, question); err != nil {
		return nil, err
	}

	question.Survey = survey
	err = s.questionRepo.Update(question)
	question.Survey = nil
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	s.invalidateQuestions(question.SurveyID)
	return question, nil
}

// GetQuestion возвращает вопрос
func (s *CatalogService) GetQuestion(id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(id)
}

// DeleteQuestion удаляет вопрос
func (s *CatalogService) DeleteQuestion(id uint) error {
	question, err := s.questionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.questionRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateQuestions(question.SurveyID)
	return nil
}

func applyQuestionInput(question *entity.Question, input QuestionInput) {
	question.Text = input.Text
	question.Order = input.Order
	question.Required = input.Required
	question.CategoryID = input.CategoryID
	question.QuestionType = input.QuestionType
	question.Choices = input.Choices
	if question.Choices != nil && strings.TrimSpace(*question.Choices) == "" {
		question.Choices = nil
	}
}

// checkQuestion проверяет тип, варианты и принадлежность категории опросу
func (s *CatalogService) checkQuestion(survey *entity.Survey, question *entity.Question) error {
	if err := question.Validate(survey.ChoiceSeparator()); err != nil {
		return err
	}
	if question.CategoryID == nil {
		return nil
	}
	category, err := s.categoryRepo.GetByID(*question.CategoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: category %d does not exist", apperrors.ErrValidation, *question.CategoryID)
		}
		return err
	}
	if category.SurveyID != survey.ID {
		return fmt.Errorf("%w: category %d belongs to another survey", apperrors.ErrValidation, category.ID)
	}
	return nil
}

// GetOrderedQuestions возвращает вопросы опроса в порядке (категория, вопрос).
// Результат кешируется; ошибки кеша не мешают чтению из БД.
func (s *CatalogService) GetOrderedQuestions(surveyID uint) ([]entity.Question, error) {
	key := questionsCacheKey(surveyID)
	if s.cacheRepo != nil {
		var cached []entity.Question
		err := s.cacheRepo.GetJSON(key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("questions cache read failed", zap.Uint("survey_id", surveyID), zap.Error(err))
		}
	}

	questions, err := s.questionRepo.GetBySurveyIDOrdered(surveyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(key, questions, s.questionsTTL); err != nil {
			s.logger.Warn("questions cache write failed", zap.Uint("survey_id", surveyID), zap.Error(err))
		}
	}
	return questions, nil
}

func (s *CatalogService) invalidateQuestions(surveyID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(questionsCacheKey(surveyID)); err != nil {
		s.logger.Warn("questions cache invalidation failed", zap.Uint("survey_id", surveyID), zap.Error(err))
	}
}

// normalizePage ограничивает параметры пагинации
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
