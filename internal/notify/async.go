package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Async выносит медленного подписчика (почта) из HTTP-запроса: события
// складываются в буферизованную очередь и доставляются фоновым Run.
// Каждая доставка ограничена timeout.
type Async struct {
	next    Notifier
	queue   chan SurveyCompleted
	timeout time.Duration
	logger  *zap.Logger
}

// NewAsync оборачивает next очередью на buffer событий
func NewAsync(next Notifier, buffer int, timeout time.Duration, logger *zap.Logger) *Async {
	if buffer < 1 {
		buffer = 1
	}
	return &Async{
		next:    next,
		queue:   make(chan SurveyCompleted, buffer),
		timeout: timeout,
		logger:  logger.With(zap.String("component", "notify_async")),
	}
}

// SurveyCompleted ставит событие в очередь и сразу возвращается
func (a *Async) SurveyCompleted(ctx context.Context, event SurveyCompleted) error {
	select {
	case a.queue <- event:
		return nil
	default:
		return fmt.Errorf("notification queue is full, event %s dropped", event.InterviewUUID)
	}
}

// Run доставляет события до отмены ctx. Необработанные события при остановке
// отбрасываются с записью в лог.
func (a *Async) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if pending := len(a.queue); pending > 0 {
				a.logger.Warn("dropping undelivered notifications", zap.Int("pending", pending))
			}
			return
		case event := <-a.queue:
			a.deliver(ctx, event)
		}
	}
}

func (a *Async) deliver(ctx context.Context, event SurveyCompleted) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	if err := a.next.SurveyCompleted(ctx, event); err != nil {
		a.logger.Warn("background notification failed",
			zap.Uint("survey_id", event.SurveyID),
			zap.String("interview_uuid", event.InterviewUUID),
			zap.Error(err))
	}
}
