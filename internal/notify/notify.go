// Package notify доставляет событие "опрос пройден" внешним подписчикам.
package notify

import (
	"context"
	"errors"
)

// AnswerItem - пара (вопрос, тело ответа) в событии
type AnswerItem struct {
	QuestionID uint        `json:"question_id"`
	Body       interface{} `json:"body"`
}

// SurveyCompleted - событие, отправляемое один раз на каждую успешную отправку
type SurveyCompleted struct {
	SurveyID      uint         `json:"survey_id"`
	InterviewUUID string       `json:"interview_uuid"`
	CallbackCode  *string      `json:"callback_code"`
	Responses     []AnswerItem `json:"responses"`
}

// Notifier - порт подписчика
type Notifier interface {
	SurveyCompleted(ctx context.Context, event SurveyCompleted) error
}

// Func адаптирует функцию к Notifier
type Func func(ctx context.Context, event SurveyCompleted) error

// SurveyCompleted вызывает f
func (f Func) SurveyCompleted(ctx context.Context, event SurveyCompleted) error {
	return f(ctx, event)
}

// Noop ничего не делает
type Noop struct{}

// SurveyCompleted реализует Notifier
func (Noop) SurveyCompleted(context.Context, SurveyCompleted) error { return nil }

// Multi рассылает событие всем подписчикам. Ошибка одного подписчика
// не мешает доставке остальным.
type Multi []Notifier

// SurveyCompleted реализует Notifier
func (m Multi) SurveyCompleted(ctx context.Context, event SurveyCompleted) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.SurveyCompleted(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
