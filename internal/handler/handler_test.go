package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/config"
	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/internal/domain/repository"
	"github.com/yourusername/survey-api/internal/form"
	"github.com/yourusername/survey-api/internal/middleware"
	"github.com/yourusername/survey-api/internal/notify"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
	"github.com/yourusername/survey-api/internal/service"
	"github.com/yourusername/survey-api/pkg/auth"
)

const testToken = "0123456789abcdef0123456789abcdef"

// memoryStore - хранилище в памяти для репозиториев каталога и ответов
type memoryStore struct {
	mu         sync.Mutex
	surveys    map[uint]*entity.Survey
	categories map[uint]*entity.Category
	questions  map[uint]*entity.Question
	responses  []entity.Response
	users      map[uint]*entity.User
	nextID     uint
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		surveys:    map[uint]*entity.Survey{},
		categories: map[uint]*entity.Category{},
		questions:  map[uint]*entity.Question{},
		users:      map[uint]*entity.User{},
		nextID:     100,
	}
}

func (s *memoryStore) id() uint {
	s.nextID++
	return s.nextID
}

type surveyRepo struct{ *memoryStore }

func (r surveyRepo) Create(survey *entity.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	survey.ID = r.id()
	copied := *survey
	r.surveys[survey.ID] = &copied
	return nil
}

func (r surveyRepo) GetByID(id uint) (*entity.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	survey, ok := r.surveys[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *survey
	return &copied, nil
}

func (r surveyRepo) Update(survey *entity.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *survey
	r.surveys[survey.ID] = &copied
	return nil
}

func (r surveyRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.surveys, id)
	return nil
}

func (r surveyRepo) List(filters repository.SurveyFilters, limit, offset int) ([]entity.Survey, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Survey
	for _, survey := range r.surveys {
		if filters.PublishedOnly && !survey.IsPublished {
			continue
		}
		if filters.Search != "" && !strings.Contains(survey.Name, filters.Search) {
			continue
		}
		out = append(out, *survey)
	}
	return out, int64(len(out)), nil
}

type categoryRepo struct{ *memoryStore }

func (r categoryRepo) Create(category *entity.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	category.ID = r.id()
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r categoryRepo) GetByID(id uint) (*entity.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *category
	return &copied, nil
}

func (r categoryRepo) GetBySurveyID(surveyID uint) ([]entity.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Category
	for _, category := range r.categories {
		if category.SurveyID == surveyID {
			out = append(out, *category)
		}
	}
	return out, nil
}

func (r categoryRepo) Update(category *entity.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *category
	r.categories[category.ID] = &copied
	return nil
}

func (r categoryRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.categories, id)
	return nil
}

type questionRepo struct{ *memoryStore }

func (r questionRepo) Create(question *entity.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	question.ID = r.id()
	copied := *question
	copied.Survey = nil
	r.questions[question.ID] = &copied
	return nil
}

func (r questionRepo) GetByID(id uint) (*entity.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	question, ok := r.questions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *question
	return &copied, nil
}

// GetBySurveyIDOrdered упорядочивает по ID: в тестах порядок вопросов совпадает с порядком создания
func (r questionRepo) GetBySurveyIDOrdered(surveyID uint) ([]entity.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Question
	for id := uint(0); id <= r.nextID; id++ {
		if question, ok := r.questions[id]; ok && question.SurveyID == surveyID {
			out = append(out, *question)
		}
	}
	return out, nil
}

func (r questionRepo) CountBySurveyID(surveyID uint) (int64, error) {
	questions, _ := r.GetBySurveyIDOrdered(surveyID)
	return int64(len(questions)), nil
}

func (r questionRepo) Update(question *entity.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *question
	copied.Survey = nil
	r.questions[question.ID] = &copied
	return nil
}

func (r questionRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.questions, id)
	return nil
}

type responseRepo struct{ *memoryStore }

func (r responseRepo) CreateWithAnswers(response *entity.Response, answers []entity.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	response.ID = r.id()
	response.CreatedAt = time.Now()
	for _, a := range answers {
		a.AttachTo(response.ID)
	}
	response.Answers = answers
	r.responses = append(r.responses, *response)
	return nil
}

func (r responseRepo) GetByInterviewUUID(interviewUUID string) (*entity.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.responses {
		if r.responses[i].InterviewUUID == interviewUUID {
			copied := r.responses[i]
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r responseRepo) ListBySurveyID(surveyID uint, limit, offset int) ([]entity.Response, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Response
	for _, resp := range r.responses {
		if resp.SurveyID == surveyID {
			out = append(out, resp)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (r responseRepo) GetAnswers(responseID uint) ([]entity.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		if resp.ID == responseID {
			return resp.Answers, nil
		}
	}
	return nil, nil
}

type userRepo struct{ *memoryStore }

func (r userRepo) Create(user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperrors.ErrConflict
		}
	}
	if err := user.BeforeSave(nil); err != nil {
		return err
	}
	user.ID = r.id()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r userRepo) GetByID(id uint) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r userRepo) GetByEmail(email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type testApp struct {
	router     *gin.Engine
	store      *memoryStore
	catalog    *service.CatalogService
	jwtService *auth.JWTService
	events     []notify.SurveyCompleted
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	app := &testApp{store: newMemoryStore()}

	jwtService, err := auth.NewJWTService("handler-test-secret", 1)
	require.NoError(t, err)
	app.jwtService = jwtService

	app.catalog = service.NewCatalogService(
		surveyRepo{app.store}, categoryRepo{app.store}, questionRepo{app.store}, nil, time.Minute, logger)
	notifier := notify.Func(func(_ context.Context, event notify.SurveyCompleted) error {
		app.events = append(app.events, event)
		return nil
	})
	builder := form.NewBuilder(form.WithTokenGenerator(func() string { return testToken }))
	responses := service.NewResponseService(app.catalog, responseRepo{app.store}, nil, 0, builder, notifier, logger)
	export := service.NewExportService(app.catalog, responseRepo{app.store}, logger)
	authService := service.NewAuthService(userRepo{app.store}, jwtService, logger)

	app.router = gin.New()
	RegisterRoutes(app.router, Handlers{
		Survey: NewSurveyHandler(app.catalog, responses, logger),
		Admin:  NewAdminHandler(app.catalog, responses, export, logger),
		Auth:   NewAuthHandler(authService, logger),
		WS:     NewWSHandler(notify.NewHub(logger), jwtService, []string{"*"}, logger),
	}, middleware.NewAuthMiddleware(jwtService), middleware.NewRateLimiter(nil, logger), config.RateLimitConfig{})
	return app
}

func (a *testApp) token(t *testing.T, role string) string {
	t.Helper()
	suffix := uintStr(a.store.nextID + 1)
	user := &entity.User{Username: role + suffix, Email: role + suffix + "@test.local", Password: "password123", Role: role}
	require.NoError(t, userRepo{a.store}.Create(user))
	token, err := a.jwtService.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(method, path, token, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// seedSurvey создает опубликованный опрос: обязательный короткий текст и необязательное число
func (a *testApp) seedSurvey(t *testing.T, stepMode bool) (*entity.Survey, []*entity.Question) {
	t.Helper()
	survey, err := a.catalog.CreateSurvey(service.SurveyInput{Name: "Feedback", IsPublished: true, DisplayByQuestion: stepMode})
	require.NoError(t, err)
	q1, err := a.catalog.CreateQuestion(survey.ID, service.QuestionInput{Text: "Name", Required: true, QuestionType: entity.QuestionTypeShortText})
	require.NoError(t, err)
	q2, err := a.catalog.CreateQuestion(survey.ID, service.QuestionInput{Text: "Age", QuestionType: entity.QuestionTypeInteger})
	require.NoError(t, err)
	return survey, []*entity.Question{q1, q2}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestSurveyHandler_FormAndSubmit(t *testing.T) {
	app := newTestApp(t)
	survey, questions := app.seedSurvey(t, false)
	base := "/api/surveys/" + uintStr(survey.ID)

	w := app.do(http.MethodGet, base+"?tanuki_callback_code=cb1&interview_uuid=chosen-by-client", "", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, testToken, body["interview_uuid"])
	assert.Equal(t, "cb1", body["callback_code"])
	assert.Len(t, body["fields"], 2)

	payload := url.Values{
		form.FieldName(questions[0].ID): {"hello"},
		form.FieldName(questions[1].ID): {""},
		form.CallbackField:              {"cb1"},
		service.InterviewField:          {"chosen-by-client"},
	}.Encode()
	w = app.do(http.MethodPost, base, "", "application/x-www-form-urlencoded", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "/api/confirm/"+testToken, body["confirm_path"])

	require.Len(t, app.store.responses, 1)
	require.Len(t, app.store.responses[0].Answers, 1, "Пустое необязательное поле не сохраняется")
	require.Len(t, app.events, 1)
	require.NotNil(t, app.events[0].CallbackCode)
	assert.Equal(t, "cb1", *app.events[0].CallbackCode)

	w = app.do(http.MethodGet, "/api/confirm/"+testToken, "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/api/confirm/unknown", "", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSurveyHandler_SubmitValidationErrors(t *testing.T) {
	app := newTestApp(t)
	survey, questions := app.seedSurvey(t, false)
	ageField := form.FieldName(questions[1].ID)

	body, err := json.Marshal(map[string]interface{}{ageField: "many"})
	require.NoError(t, err)
	w := app.do(http.MethodPost, "/api/surveys/"+uintStr(survey.ID), "", "application/json", string(body))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	resp := decode(t, w)
	fields := resp["fields"].(map[string]interface{})
	assert.Contains(t, fields, form.FieldName(questions[0].ID))
	assert.Contains(t, fields, ageField)

	rendered := resp["form"].(map[string]interface{})
	var initial []interface{}
	for _, f := range rendered["fields"].([]interface{}) {
		field := f.(map[string]interface{})
		if field["name"] == ageField {
			initial = field["initial"].([]interface{})
		}
	}
	assert.Equal(t, []interface{}{"many"}, initial, "Форма возвращается с отправленными значениями")
	assert.Empty(t, app.store.responses)
	assert.Empty(t, app.events)
}

func TestSurveyHandler_NotFoundAndStepRoutes(t *testing.T) {
	app := newTestApp(t)
	survey, _ := app.seedSurvey(t, false)

	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, "/api/surveys/9999", "", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, app.do(http.MethodGet, "/api/surveys/abc", "", "", "").Code)
	assert.Equal(t, http.StatusNotFound,
		app.do(http.MethodGet, "/api/surveys/"+uintStr(survey.ID)+"/steps/0", "", "", "").Code,
		"Шаги есть только у пошаговых опросов")

	stepSurvey, _ := app.seedSurvey(t, true)
	w := app.do(http.MethodGet, "/api/surveys/"+uintStr(stepSurvey.ID)+"/steps/1", "", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["fields"], 1)
	assert.Equal(t, false, body["has_next_step"])

	assert.Equal(t, http.StatusNotFound,
		app.do(http.MethodGet, "/api/surveys/"+uintStr(stepSurvey.ID)+"/steps/5", "", "", "").Code)
}

func TestSurveyHandler_LoginRequired(t *testing.T) {
	app := newTestApp(t)
	survey, err := app.catalog.CreateSurvey(service.SurveyInput{Name: "Private", IsPublished: true, NeedLoggedUser: true})
	require.NoError(t, err)
	path := "/api/surveys/" + uintStr(survey.ID)

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, path, "", "", "").Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, path, app.token(t, entity.UserRoleUser), "", "").Code)
}

func TestAdminHandler_AccessAndCRUD(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/api/admin/surveys", "", "", "").Code)
	assert.Equal(t, http.StatusForbidden,
		app.do(http.MethodGet, "/api/admin/surveys", app.token(t, entity.UserRoleUser), "", "").Code)

	admin := app.token(t, entity.UserRoleAdmin)
	w := app.do(http.MethodPost, "/api/admin/surveys", admin, "application/json", `{"name":"Poll","separator":";"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	surveyID := uint(decode(t, w)["id"].(float64))
	base := "/api/admin/surveys/" + uintStr(surveyID)

	w = app.do(http.MethodPost, base+"/questions", admin, "application/json",
		`{"text":"Pick","question_type":"radio","choices":"a,b"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "Запятые не делятся разделителем ';'")

	w = app.do(http.MethodPost, base+"/questions", admin, "application/json",
		`{"text":"Pick","question_type":"radio","choices":"a;b"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parsed := decode(t, w)["parsed_choices"].([]interface{})
	assert.Len(t, parsed, 2)

	w = app.do(http.MethodGet, base, admin, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["questions"], 1)

	w = app.do(http.MethodGet, "/api/admin/surveys?search=Poll", admin, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode(t, w)["surveys"].([]interface{})
	require.Len(t, listed, 1)
	assert.Equal(t, float64(1), listed[0].(map[string]interface{})["questions_count"])

	w = app.do(http.MethodPost, base+"/questions", admin, "application/json",
		`{"text":"When","question_type":"date"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	assert.Equal(t, http.StatusNoContent, app.do(http.MethodDelete, base, admin, "", "").Code)
	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, base, admin, "", "").Code)
}

func TestAdminHandler_ExportXLSX(t *testing.T) {
	app := newTestApp(t)
	survey, questions := app.seedSurvey(t, false)
	payload, _ := json.Marshal(map[string]interface{}{
		form.FieldName(questions[0].ID): "Alice",
		form.FieldName(questions[1].ID): 30,
	})
	require.Equal(t, http.StatusCreated,
		app.do(http.MethodPost, "/api/surveys/"+uintStr(survey.ID), "", "application/json", string(payload)).Code)

	admin := app.token(t, entity.UserRoleAdmin)
	w := app.do(http.MethodGet, "/api/admin/surveys/"+uintStr(survey.ID)+"/export.xlsx", admin, "", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Responses")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[1][4])
	assert.Equal(t, "30", rows[1][5])

	w = app.do(http.MethodGet, "/api/admin/surveys/"+uintStr(survey.ID)+"/responses", admin, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])
}

func TestAuthHandler_LoginAndTicket(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/auth/register", "", "application/json",
		`{"username":"admin","email":"admin@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = app.do(http.MethodPost, "/api/auth/register", "", "application/json",
		`{"username":"admin2","email":"admin@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodPost, "/api/auth/login", "", "application/json",
		`{"email":"admin@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/auth/login", "", "application/json",
		`{"email":"admin@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["accessToken"].(string)

	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/api/auth/me", token, "", "").Code)
	assert.Equal(t, http.StatusForbidden, app.do(http.MethodPost, "/api/auth/ws-ticket", token, "", "").Code,
		"Лента доступна только администраторам")

	admin := app.token(t, entity.UserRoleAdmin)
	w = app.do(http.MethodPost, "/api/auth/ws-ticket", admin, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	ticket := decode(t, w)["data"].(map[string]interface{})["ticket"].(string)
	assert.NotEmpty(t, ticket)

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/ws/completions", "", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/ws/completions?ticket="+token, "", "", "").Code,
		"Токен доступа не подходит как тикет")
}

func uintStr(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
