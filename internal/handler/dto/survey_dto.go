package dto

import (
	"time"

	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/internal/form"
)

// SurveyResponse представляет опрос в формате для ответа клиенту
type SurveyResponse struct {
	ID                uint               `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	IsPublished       bool               `json:"is_published"`
	NeedLoggedUser    bool               `json:"need_logged_user"`
	DisplayByQuestion bool               `json:"display_by_question"`
	Template          *string            `json:"template,omitempty"`
	Separator         string             `json:"separator"`
	Categories        []CategoryResponse `json:"categories,omitempty"`
	QuestionsCount    *int64             `json:"questions_count,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// CategoryResponse представляет категорию вопросов
type CategoryResponse struct {
	ID       uint   `json:"id"`
	SurveyID uint   `json:"survey_id"`
	Name     string `json:"name"`
	Order    *int   `json:"order,omitempty"`
}

// QuestionResponse представляет вопрос для администратора
type QuestionResponse struct {
	ID           uint                `json:"id"`
	SurveyID     uint                `json:"survey_id"`
	Text         string              `json:"text"`
	Order        int                 `json:"order"`
	Required     bool                `json:"required"`
	CategoryID   *uint               `json:"category_id,omitempty"`
	QuestionType entity.QuestionType `json:"question_type"`
	Choices      *string             `json:"choices,omitempty"`
	// ParsedChoices - варианты, разобранные разделителем опроса
	ParsedChoices []entity.Choice `json:"parsed_choices,omitempty"`
}

// PaginatedSurveysResponse представляет страницу опросов
type PaginatedSurveysResponse struct {
	Surveys []*SurveyResponse `json:"surveys"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// NewSurveyResponse создает DTO опроса
func NewSurveyResponse(s *entity.Survey) *SurveyResponse {
	resp := &SurveyResponse{
		ID:                s.ID,
		Name:              s.Name,
		Description:       s.Description,
		IsPublished:       s.IsPublished,
		NeedLoggedUser:    s.NeedLoggedUser,
		DisplayByQuestion: s.DisplayByQuestion,
		Template:          s.Template,
		Separator:         s.ChoiceSeparator(),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	for i := range s.Categories {
		resp.Categories = append(resp.Categories, NewCategoryResponse(&s.Categories[i]))
	}
	return resp
}

// NewPaginatedSurveysResponse создает DTO страницы опросов
func NewPaginatedSurveysResponse(surveys []entity.Survey, total int64, page, perPage int) *PaginatedSurveysResponse {
	resp := &PaginatedSurveysResponse{
		Surveys: make([]*SurveyResponse, 0, len(surveys)),
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
	for i := range surveys {
		resp.Surveys = append(resp.Surveys, NewSurveyResponse(&surveys[i]))
	}
	return resp
}

// NewCategoryResponse создает DTO категории
func NewCategoryResponse(c *entity.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, SurveyID: c.SurveyID, Name: c.Name, Order: c.Order}
}

// NewQuestionResponse создает DTO вопроса; separator - разделитель опроса
func NewQuestionResponse(q *entity.Question, separator string) *QuestionResponse {
	resp := &QuestionResponse{
		ID:           q.ID,
		SurveyID:     q.SurveyID,
		Text:         q.Text,
		Order:        q.Order,
		Required:     q.Required,
		CategoryID:   q.CategoryID,
		QuestionType: q.QuestionType,
		Choices:      q.Choices,
	}
	if q.QuestionType.HasChoices() && q.Choices != nil {
		resp.ParsedChoices = q.GetChoices(separator)
	}
	return resp
}

// FormResponse - описание формы для клиента
type FormResponse struct {
	Survey        *SurveyResponse `json:"survey,omitempty"`
	InterviewUUID string          `json:"interview_uuid"`
	CallbackCode  *string         `json:"callback_code,omitempty"`
	Fields        []form.Field    `json:"fields"`
	Step          *int            `json:"step,omitempty"`
	StepsCount    int             `json:"steps_count"`
	HasNextStep   bool            `json:"has_next_step"`
	NextStepPath  string          `json:"next_step_path,omitempty"`
}

// NewFormResponse создает DTO формы; survey может быть nil
func NewFormResponse(survey *entity.Survey, f *form.Form) *FormResponse {
	resp := &FormResponse{
		InterviewUUID: f.InterviewUUID(),
		CallbackCode:  f.CallbackCode(),
		Fields:        f.Fields(),
		StepsCount:    f.StepsCount(),
		HasNextStep:   f.HasNextStep(),
	}
	if survey != nil {
		resp.Survey = NewSurveyResponse(survey)
	}
	if step, ok := f.CurrentStep(); ok {
		resp.Step = &step
	}
	if next, ok := f.NextStepPath(); ok {
		resp.NextStepPath = next
	}
	return resp
}
