package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/internal/domain/repository"
	"github.com/yourusername/survey-api/internal/form"
	"github.com/yourusername/survey-api/internal/notify"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// InterviewField - поле, которым клиент продолжает пошаговое интервью
const InterviewField = "interview_uuid"

// DefaultNotifyTimeout ограничивает доставку события подписчикам внутри запроса
const DefaultNotifyTimeout = 5 * time.Second

// ErrDraftStoreUnavailable возвращается, если пошаговый опрос некуда сохранять
var ErrDraftStoreUnavailable = errors.New("step-by-step surveys require a draft store")

// SurveyCatalog - часть каталога, нужная для построения форм
type SurveyCatalog interface {
	GetSurvey(id uint) (*entity.Survey, error)
	GetOrderedQuestions(surveyID uint) ([]entity.Question, error)
}

// SubmitResult - итог отправки формы
type SubmitResult struct {
	// Form - форма, которую нужно показать при ошибках проверки
	Form *form.Form
	// Response заполнен, когда интервью завершено
	Response *entity.Response
	// NextStepPath заполнен, когда в пошаговом опросе остались шаги
	NextStepPath string
}

// Completed сообщает, создан ли Response
func (r *SubmitResult) Completed() bool {
	return r != nil && r.Response != nil
}

// ResponseService строит формы опросов и сохраняет ответы
type ResponseService struct {
	catalog      SurveyCatalog
	responseRepo repository.ResponseRepository
	draftRepo    repository.CacheRepository
	draftTTL     time.Duration
	builder      *form.Builder
	notifier     notify.Notifier
	notifyWait   time.Duration
	logger       *zap.Logger
}

// NewResponseService создает сервис ответов. draftRepo может быть nil,
// тогда пошаговые опросы недоступны.
func NewResponseService(
	catalog SurveyCatalog,
	responseRepo repository.ResponseRepository,
	draftRepo repository.CacheRepository,
	draftTTL time.Duration,
	builder *form.Builder,
	notifier notify.Notifier,
	logger *zap.Logger,
) *ResponseService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if builder == nil {
		builder = form.NewBuilder()
	}
	return &ResponseService{
		catalog:      catalog,
		responseRepo: responseRepo,
		draftRepo:    draftRepo,
		draftTTL:     draftTTL,
		builder:      builder,
		notifier:     notifier,
		notifyWait:   DefaultNotifyTimeout,
		logger:       logger.With(zap.String("component", "response_service")),
	}
}

// load возвращает опубликованный опрос и его упорядоченные вопросы
func (s *ResponseService) load(surveyID uint, user *entity.User) (*entity.Survey, []entity.Question, error) {
	survey, err := s.catalog.GetSurvey(surveyID)
	if err != nil {
		return nil, nil, err
	}
	if !survey.IsPublished {
		return nil, nil, apperrors.ErrNotFound
	}
	if survey.NeedLoggedUser && user == nil {
		return nil, nil, apperrors.ErrUnauthorized
	}
	questions, err := s.catalog.GetOrderedQuestions(surveyID)
	if err != nil {
		return nil, nil, err
	}
	return survey, questions, nil
}

// NewForm строит форму опроса. В пошаговом режиме без шага показывается
// первый вопрос; шаг за пределами опроса дает ErrNotFound.
func (s *ResponseService) NewForm(surveyID uint, user *entity.User, opts form.Options) (*entity.Survey, *form.Form, error) {
	survey, questions, err := s.load(surveyID, user)
	if err != nil {
		return nil, nil, err
	}
	opts.InterviewUUID = s.resumableInterview(survey, opts.InterviewUUID)
	if survey.DisplayByQuestion {
		if opts.Step == nil && len(questions) > 0 {
			first := 0
			opts.Step = &first
		}
		if opts.Step != nil && (*opts.Step < 0 || *opts.Step >= len(questions)) {
			return nil, nil, apperrors.ErrNotFound
		}
	}
	return survey, s.builder.Build(survey, questions, user, opts), nil
}

// resumableInterview возвращает токен клиента, только если он продолжает
// пошаговое интервью с сохраненным черновиком. Пустая строка означает, что
// Builder выпустит новый токен.
func (s *ResponseService) resumableInterview(survey *entity.Survey, token string) string {
	if token == "" || !survey.DisplayByQuestion || s.draftRepo == nil || !form.IsInterviewToken(token) {
		return ""
	}
	var draft form.Values
	if err := s.draftRepo.GetJSON(draftKey(survey.ID, token), &draft); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("failed to check interview draft", zap.Uint("survey_id", survey.ID), zap.Error(err))
		}
		return ""
	}
	return token
}

// SubmitForm проверяет данные формы и атомарно сохраняет Response со всеми
// ответами. После фиксации ровно одно событие уходит подписчикам.
func (s *ResponseService) SubmitForm(ctx context.Context, f *form.Form, data form.Values) (*entity.Response, error) {
	if f.LoginRequired() && f.UserID() == nil {
		return nil, apperrors.ErrUnauthorized
	}

	cleaned, fieldErrs := f.Clean(data)
	if len(fieldErrs) > 0 {
		return nil, form.NewValidationError(fieldErrs)
	}

	response := &entity.Response{
		SurveyID:      f.SurveyID(),
		UserID:        f.UserID(),
		InterviewUUID: f.InterviewUUID(),
	}
	answers := make([]entity.Answer, 0, len(cleaned.Values))
	items := make([]notify.AnswerItem, 0, len(cleaned.Values))
	for _, value := range cleaned.Values {
		answer := value.NewAnswer()
		answers = append(answers, answer)
		items = append(items, notify.AnswerItem{QuestionID: answer.GetQuestionID(), Body: answer.BodyValue()})
		s.logger.Debug("creating answer",
			zap.Uint("question_id", value.QuestionID),
			zap.String("answer_table", answer.TableName()))
	}

	if err := s.responseRepo.CreateWithAnswers(response, answers); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	event := notify.SurveyCompleted{
		SurveyID:      response.SurveyID,
		InterviewUUID: response.InterviewUUID,
		CallbackCode:  cleaned.CallbackCode,
		Responses:     items,
	}
	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyWait)
	defer cancel()
	if err := s.notifier.SurveyCompleted(notifyCtx, event); err != nil {
		s.logger.Warn("survey completed subscribers failed",
			zap.Uint("survey_id", response.SurveyID),
			zap.String("interview_uuid", response.InterviewUUID),
			zap.Error(err))
	}

	s.logger.Info("survey completed",
		zap.Uint("survey_id", response.SurveyID),
		zap.Uint("response_id", response.ID),
		zap.Int("answers", len(answers)))
	return response, nil
}

// Submit обрабатывает отправку опроса (или одного шага). При ошибке
// проверки возвращается форма с сохраненными значениями для повторного показа.
func (s *ResponseService) Submit(ctx context.Context, surveyID uint, user *entity.User, step *int, data form.Values) (*SubmitResult, error) {
	opts := form.Options{Step: step, Data: data, InterviewUUID: data.Get(InterviewField)}
	if code := data.Get(form.CallbackField); code != "" {
		opts.CallbackCode = &code
	}

	survey, f, err := s.NewForm(surveyID, user, opts)
	if err != nil {
		return nil, err
	}
	result := &SubmitResult{Form: f}

	// Пошаговый опрос без вопросов сохраняется сразу, черновик не нужен
	if !f.StepMode() || f.StepsCount() == 0 {
		response, err := s.SubmitForm(ctx, f, data)
		if err != nil {
			return result, err
		}
		result.Response = response
		return result, nil
	}
	return s.submitStep(ctx, survey, user, f, data, result)
}

// submitStep проверяет текущий шаг и копит значения в черновике интервью.
// На последнем шаге черновик проверяется целиком и сохраняется.
func (s *ResponseService) submitStep(ctx context.Context, survey *entity.Survey, user *entity.User, f *form.Form, data form.Values, result *SubmitResult) (*SubmitResult, error) {
	if s.draftRepo == nil {
		return result, ErrDraftStoreUnavailable
	}
	if _, fieldErrs := f.Clean(data); len(fieldErrs) > 0 {
		return result, form.NewValidationError(fieldErrs)
	}

	key := draftKey(survey.ID, f.InterviewUUID())
	draft := form.Values{}
	if err := s.draftRepo.GetJSON(key, &draft); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return result, fmt.Errorf("failed to load interview draft: %w", err)
	}
	for _, field := range f.Fields() {
		draft[field.Name] = data[field.Name]
	}
	if code := data.Get(form.CallbackField); code != "" {
		draft.Set(form.CallbackField, code)
	}

	if next, ok := f.NextStepPath(); ok {
		if err := s.draftRepo.SetJSON(key, draft, s.draftTTL); err != nil {
			return result, fmt.Errorf("failed to save interview draft: %w", err)
		}
		result.NextStepPath = next
		return result, nil
	}

	questions, err := s.catalog.GetOrderedQuestions(survey.ID)
	if err != nil {
		return result, err
	}
	full := s.builder.Build(survey, questions, user, form.Options{
		InterviewUUID: f.InterviewUUID(),
		CallbackCode:  f.CallbackCode(),
		Data:          draft,
	})
	result.Form = full

	response, err := s.SubmitForm(ctx, full, draft)
	if err != nil {
		return result, err
	}
	result.Response = response

	if err := s.draftRepo.Delete(key); err != nil {
		s.logger.Warn("failed to delete interview draft", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

func draftKey(surveyID uint, interviewUUID string) string {
	return fmt.Sprintf("survey:%d:draft:%s", surveyID, interviewUUID)
}

// GetByInterviewUUID возвращает Response для страницы подтверждения
func (s *ResponseService) GetByInterviewUUID(interviewUUID string) (*entity.Response, error) {
	return s.responseRepo.GetByInterviewUUID(interviewUUID)
}

// ListResponses возвращает страницу ответов на опрос
func (s *ResponseService) ListResponses(surveyID uint, page, pageSize int) ([]entity.Response, int64, error) {
	if _, err := s.catalog.GetSurvey(surveyID); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize)
	responses, total, err := s.responseRepo.ListBySurveyID(surveyID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, total, nil
}
