package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/form"
	"github.com/yourusername/survey-api/internal/handler/dto"
	"github.com/yourusername/survey-api/internal/handler/helper"
	"github.com/yourusername/survey-api/internal/middleware"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
	"github.com/yourusername/survey-api/internal/service"
)

// ConfirmPathFormat - адрес подтверждения по токену интервью
const ConfirmPathFormat = "/api/confirm/%s"

// SurveyHandler обслуживает прохождение опросов
type SurveyHandler struct {
	catalog   *service.CatalogService
	responses *service.ResponseService
	logger    *zap.Logger
}

// NewSurveyHandler создает обработчик опросов
func NewSurveyHandler(catalog *service.CatalogService, responses *service.ResponseService, logger *zap.Logger) *SurveyHandler {
	return &SurveyHandler{
		catalog:   catalog,
		responses: responses,
		logger:    logger.With(zap.String("component", "survey_handler")),
	}
}

// ListSurveys возвращает опубликованные опросы
func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	page, pageSize := helper.ParsePagination(c)
	surveys, total, err := h.catalog.ListSurveys(true, c.Query("search"), page, pageSize)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedSurveysResponse(surveys, total, page, pageSize))
}

// formOptions собирает параметры формы из query
func formOptions(c *gin.Context) form.Options {
	opts := form.Options{InterviewUUID: c.Query(service.InterviewField)}
	if code := c.Query(form.CallbackField); code != "" {
		opts.CallbackCode = &code
	}
	return opts
}

// GetForm начинает опрос: все поля или первый шаг
func (h *SurveyHandler) GetForm(c *gin.Context) {
	surveyID := c.MustGet("surveyID").(uint)
	survey, f, err := h.responses.NewForm(surveyID, middleware.CurrentUser(c), formOptions(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFormResponse(survey, f))
}

// GetStep возвращает форму одного шага
func (h *SurveyHandler) GetStep(c *gin.Context) {
	surveyID := c.MustGet("surveyID").(uint)
	step, err := helper.ParseStep(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := formOptions(c)
	opts.Step = &step
	survey, f, err := h.responses.NewForm(surveyID, middleware.CurrentUser(c), opts)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if !f.StepMode() {
		handleError(c, h.logger, fmt.Errorf("survey %d is not step-by-step: %w", surveyID, apperrors.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, dto.NewFormResponse(survey, f))
}

// Submit принимает отправку опроса целиком
func (h *SurveyHandler) Submit(c *gin.Context) {
	h.submit(c, nil)
}

// SubmitStep принимает отправку одного шага
func (h *SurveyHandler) SubmitStep(c *gin.Context) {
	step, err := helper.ParseStep(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.submit(c, &step)
}

func (h *SurveyHandler) submit(c *gin.Context, step *int) {
	surveyID := c.MustGet("surveyID").(uint)
	values, err := helper.BindFormValues(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.responses.Submit(c.Request.Context(), surveyID, middleware.CurrentUser(c), step, values)
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) && result != nil && result.Form != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  apperrors.ErrValidation.Error(),
				"fields": verr.Fields,
				"form":   dto.NewFormResponse(nil, result.Form),
			})
			return
		}
		handleError(c, h.logger, err)
		return
	}

	if !result.Completed() {
		c.JSON(http.StatusOK, dto.StepAcceptedResponse{
			InterviewUUID: result.Form.InterviewUUID(),
			NextStepPath:  result.NextStepPath,
		})
		return
	}
	c.JSON(http.StatusCreated, dto.ConfirmationResponse{
		InterviewUUID: result.Response.InterviewUUID,
		SurveyID:      result.Response.SurveyID,
		ConfirmPath:   fmt.Sprintf(ConfirmPathFormat, result.Response.InterviewUUID),
	})
}

// Confirm подтверждает сохраненное интервью по токену
func (h *SurveyHandler) Confirm(c *gin.Context) {
	response, err := h.responses.GetByInterviewUUID(c.Param("uuid"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.ConfirmationResponse{
		InterviewUUID: response.InterviewUUID,
		SurveyID:      response.SurveyID,
		ConfirmPath:   fmt.Sprintf(ConfirmPathFormat, response.InterviewUUID),
	})
}
