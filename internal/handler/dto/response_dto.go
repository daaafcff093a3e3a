package dto

import (
	"time"

	"github.com/yourusername/survey-api/internal/domain/entity"
)

// AnswerResponse - один сохраненный ответ
type AnswerResponse struct {
	QuestionID uint        `json:"question_id"`
	Kind       string      `json:"kind"`
	Body       interface{} `json:"body"`
}

// ResponseResponse представляет завершенное интервью
type ResponseResponse struct {
	ID            uint             `json:"id"`
	SurveyID      uint             `json:"survey_id"`
	UserID        *uint            `json:"user_id,omitempty"`
	InterviewUUID string           `json:"interview_uuid"`
	Answers       []AnswerResponse `json:"answers"`
	CreatedAt     time.Time        `json:"created_at"`
}

// PaginatedResponsesResponse представляет страницу ответов на опрос
type PaginatedResponsesResponse struct {
	Responses []*ResponseResponse `json:"responses"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	PerPage   int                 `json:"per_page"`
}

// ConfirmationResponse возвращается после успешной отправки
type ConfirmationResponse struct {
	InterviewUUID string `json:"interview_uuid"`
	SurveyID      uint   `json:"survey_id"`
	ConfirmPath   string `json:"confirm_path"`
}

// StepAcceptedResponse возвращается после принятого промежуточного шага
type StepAcceptedResponse struct {
	InterviewUUID string `json:"interview_uuid"`
	NextStepPath  string `json:"next_step_path"`
}

// NewResponseResponse создает DTO ответа
func NewResponseResponse(r *entity.Response) *ResponseResponse {
	resp := &ResponseResponse{
		ID:            r.ID,
		SurveyID:      r.SurveyID,
		UserID:        r.UserID,
		InterviewUUID: r.InterviewUUID,
		Answers:       make([]AnswerResponse, 0, len(r.Answers)),
		CreatedAt:     r.CreatedAt,
	}
	for _, a := range r.Answers {
		resp.Answers = append(resp.Answers, AnswerResponse{
			QuestionID: a.GetQuestionID(),
			Kind:       a.TableName(),
			Body:       a.BodyValue(),
		})
	}
	return resp
}

// NewPaginatedResponsesResponse создает DTO страницы ответов
func NewPaginatedResponsesResponse(responses []entity.Response, total int64, page, perPage int) *PaginatedResponsesResponse {
	resp := &PaginatedResponsesResponse{
		Responses: make([]*ResponseResponse, 0, len(responses)),
		Total:     total,
		Page:      page,
		PerPage:   perPage,
	}
	for i := range responses {
		resp.Responses = append(resp.Responses, NewResponseResponse(&responses[i]))
	}
	return resp
}
