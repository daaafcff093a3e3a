package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

const emailAttempts = 3

// emailSender - часть клиента Resend, используемая уведомителем
type emailSender interface {
	SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error)
}

// EmailNotifier отправляет сводку пройденного опроса на почту через Resend
type EmailNotifier struct {
	from   string
	to     []string
	sender emailSender
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewEmailNotifier создает почтовый уведомитель
func NewEmailNotifier(apiKey, from string, to []string) (*EmailNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	client := resend.NewClient(apiKey)
	return newEmailNotifier(client.Emails, from, to)
}

func newEmailNotifier(sender emailSender, from string, to []string) (*EmailNotifier, error) {
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("at least one email recipient is required")
	}
	return &EmailNotifier{
		from:   from,
		to:     append([]string(nil), to...),
		sender: sender,
		sleep:  sleepContext,
	}, nil
}

// SurveyCompleted реализует Notifier. Токен интервью служит ключом
// идемпотентности, повторная доставка не дублирует письмо.
func (n *EmailNotifier) SurveyCompleted(ctx context.Context, event SurveyCompleted) error {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: fmt.Sprintf("Survey #%d completed", event.SurveyID),
		Text:    emailText(event),
	}
	options := &resend.SendEmailOptions{IdempotencyKey: "survey-completed/" + event.InterviewUUID}

	var lastErr error
	for attempt := 0; attempt < emailAttempts; attempt++ {
		_, err := n.sender.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		wait, ok := resendRetryDelay(err, attempt)
		if !ok {
			return fmt.Errorf("resend send failed: %w", err)
		}
		if err := n.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func emailText(event SurveyCompleted) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Survey: %d\n", event.SurveyID)
	fmt.Fprintf(&b, "Interview: %s\n", event.InterviewUUID)
	if event.CallbackCode != nil {
		fmt.Fprintf(&b, "Callback code: %s\n", *event.CallbackCode)
	}
	fmt.Fprintf(&b, "Answers: %d\n\n", len(event.Responses))
	for _, item := range event.Responses {
		fmt.Fprintf(&b, "question %d: %v\n", item.QuestionID, item.Body)
	}
	return b.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resendRetryDelay решает, стоит ли повторять отправку и через сколько
func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}
	return 0, false
}
