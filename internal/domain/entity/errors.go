package entity

import (
	"fmt"

	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// ErrInvalidQuestionType - тип вопроса вне перечисления QuestionTypes
var ErrInvalidQuestionType = fmt.Errorf("invalid question type: %w", apperrors.ErrValidation)
