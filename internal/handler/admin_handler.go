package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/internal/handler/dto"
	"github.com/yourusername/survey-api/internal/handler/helper"
	"github.com/yourusername/survey-api/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler управляет каталогом опросов и выгрузкой ответов
type AdminHandler struct {
	catalog   *service.CatalogService
	responses *service.ResponseService
	export    *service.ExportService
	logger    *zap.Logger
}

// NewAdminHandler создает обработчик администратора
func NewAdminHandler(
	catalog *service.CatalogService,
	responses *service.ResponseService,
	export *service.ExportService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalog:   catalog,
		responses: responses,
		export:    export,
		logger:    logger.With(zap.String("component", "admin_handler")),
	}
}

// SurveyRequest представляет запрос на создание или изменение опроса
type SurveyRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	IsPublished       bool    `json:"is_published"`
	NeedLoggedUser    bool    `json:"need_logged_user"`
	DisplayByQuestion bool    `json:"display_by_question"`
	Template          *string `json:"template"`
	Separator         string  `json:"separator"`
}

func (r SurveyRequest) input() service.SurveyInput {
	return service.SurveyInput{
		Name:              r.Name,
		Description:       r.Description,
		IsPublished:       r.IsPublished,
		NeedLoggedUser:    r.NeedLoggedUser,
		DisplayByQuestion: r.DisplayByQuestion,
		Template:          r.Template,
		Separator:         r.Separator,
	}
}

// CategoryRequest представляет запрос категории
type CategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Order *int   `json:"order"`
}

// QuestionRequest представляет запрос вопроса
type QuestionRequest struct {
	Text         string  `json:"text" binding:"required"`
	Order        int     `json:"order"`
	Required     bool    `json:"required"`
	CategoryID   *uint   `json:"category_id"`
	QuestionType string  `json:"question_type" binding:"required"`
	Choices      *string `json:"choices"`
}

func (r QuestionRequest) input() service.QuestionInput {
	return service.QuestionInput{
		Text:         r.Text,
		Order:        r.Order,
		Required:     r.Required,
		CategoryID:   r.CategoryID,
		QuestionType: entity.QuestionType(r.QuestionType),
		Choices:      r.Choices,
	}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return false
	}
	return true
}

// ListSurveys возвращает все опросы, включая неопубликованные
func (h *AdminHandler) ListSurveys(c *gin.Context) {
	page, pageSize := helper.ParsePagination(c)
	surveys, total, err := h.catalog.ListSurveys(false, c.Query("search"), page, pageSize)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	resp := dto.NewPaginatedSurveysResponse(surveys, total, page, pageSize)
	for _, survey := range resp.Surveys {
		count, err := h.catalog.CountQuestions(survey.ID)
		if err != nil {
			handleError(c, h.logger, err)
			return
		}
		survey.QuestionsCount = &count
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSurvey создает опрос
func (h *AdminHandler) CreateSurvey(c *gin.Context) {
	var req SurveyRequest
	if !bindJSON(c, &req) {
		return
	}
	survey, err := h.catalog.CreateSurvey(req.input())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSurveyResponse(survey))
}

// GetSurvey возвращает опрос с категориями и вопросами
func (h *AdminHandler) GetSurvey(c *gin.Context) {
	surveyID := c.MustGet("surveyID").(uint)
	survey, err := h.catalog.GetSurvey(surveyID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	questions, err := h.catalog.GetOrderedQuestions(surveyID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	questionDTOs := make([]*dto.QuestionResponse, 0, len(questions))
	for i := range questions {
		questionDTOs = append(questionDTOs, dto.NewQuestionResponse(&questions[i], survey.ChoiceSeparator()))
	}
	c.JSON(http.StatusOK, gin.H{
		"survey":    dto.NewSurveyResponse(survey),
		"questions": questionDTOs,
	})
}

// UpdateSurvey изменяет опрос
func (h *AdminHandler) UpdateSurvey(c *gin.Context) {
	var req SurveyRequest
	if !bindJSON(c, &req) {
		return
	}
	survey, err := h.catalog.UpdateSurvey(c.MustGet("surveyID").(uint), req.input())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSurveyResponse(survey))
}

// DeleteSurvey удаляет опрос
func (h *AdminHandler) DeleteSurvey(c *gin.Context) {
	if err := h.catalog.DeleteSurvey(c.MustGet("surveyID").(uint)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCategories возвращает категории опроса
func (h *AdminHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.MustGet("surveyID").(uint))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	resp := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		resp = append(resp, dto.NewCategoryResponse(&categories[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateCategory добавляет категорию
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.CreateCategory(c.MustGet("surveyID").(uint), service.CategoryInput{Name: req.Name, Order: req.Order})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCategoryResponse(category))
}

// UpdateCategory изменяет категорию
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.UpdateCategory(c.MustGet("categoryID").(uint), service.CategoryInput{Name: req.Name, Order: req.Order})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCategoryResponse(category))
}

// DeleteCategory удаляет категорию
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.MustGet("categoryID").(uint)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateQuestion добавляет вопрос в опрос
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	var req QuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	surveyID := c.MustGet("surveyID").(uint)
	question, err := h.catalog.CreateQuestion(surveyID, req.input())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, h.questionResponse(question))
}

// UpdateQuestion изменяет вопрос
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	var req QuestionRequest
	if !bindJSON(c, &req) {
		return
	}
	question, err := h.catalog.UpdateQuestion(c.MustGet("questionID").(uint), req.input())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.questionResponse(question))
}

// DeleteQuestion удаляет вопрос
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	if err := h.catalog.DeleteQuestion(c.MustGet("questionID").(uint)); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// questionResponse разбирает варианты разделителем опроса вопроса
func (h *AdminHandler) questionResponse(q *entity.Question) *dto.QuestionResponse {
	separator := entity.DefaultSeparator
	if survey, err := h.catalog.GetSurvey(q.SurveyID); err == nil {
		separator = survey.ChoiceSeparator()
	}
	return dto.NewQuestionResponse(q, separator)
}

// ListResponses возвращает страницу ответов на опрос
func (h *AdminHandler) ListResponses(c *gin.Context) {
	page, pageSize := helper.ParsePagination(c)
	responses, total, err := h.responses.ListResponses(c.MustGet("surveyID").(uint), page, pageSize)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponsesResponse(responses, total, page, pageSize))
}

// ExportResponses отдает ответы опроса файлом XLSX
func (h *AdminHandler) ExportResponses(c *gin.Context) {
	surveyID := c.MustGet("surveyID").(uint)

	// Книга собирается в буфер, чтобы ошибка не оборвала уже начатый ответ
	var buf bytes.Buffer
	if err := h.export.WriteXLSX(&buf, surveyID); err != nil {
		handleError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("survey_%d_responses_%s.xlsx", surveyID, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
