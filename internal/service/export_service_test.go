package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/domain/entity"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

func TestExportService_WriteXLSX(t *testing.T) {
	catalog := &fakeCatalog{
		survey: &entity.Survey{ID: 1, Separator: ";"},
		questions: []entity.Question{
			{ID: 1, Text: "Name", QuestionType: entity.QuestionTypeShortText},
			{ID: 2, Text: "Fruits", QuestionType: entity.QuestionTypeSelectMultiple},
			{ID: 3, Text: "Age", QuestionType: entity.QuestionTypeInteger},
		},
	}
	userID := uint(5)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	responses := []entity.Response{
		{
			ID: 10, InterviewUUID: "aaa", UserID: &userID, CreatedAt: created,
			Answers: []entity.Answer{
				entity.NewAnswerText(1, "=HYPERLINK(\"x\")"),
				entity.NewAnswerSelectMultiple(2, []string{"apple", "pear"}),
				entity.NewAnswerInteger(3, 30),
			},
		},
		{
			ID: 11, InterviewUUID: "bbb", CreatedAt: created,
			Answers: []entity.Answer{entity.NewAnswerText(1, "Bob")},
		},
	}
	repo := new(MockResponseRepo)
	repo.On("ListBySurveyID", uint(1), exportBatchSize, 0).Return(responses, int64(2), nil).Once()
	s := NewExportService(catalog, repo, zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, s.WriteXLSX(&buf, 1))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Responses")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Response ID", "Interview UUID", "User ID", "Created At", "Name", "Fruits", "Age"}, rows[0])
	assert.Equal(t, "10", rows[1][0])
	assert.Equal(t, "5", rows[1][2])
	assert.Equal(t, "'=HYPERLINK(\"x\")", rows[1][4], "Формулы экранируются")
	assert.Equal(t, "apple;pear", rows[1][5], "Множественный выбор склеивается разделителем опроса")
	assert.Equal(t, "30", rows[1][6])
	assert.Equal(t, "Bob", rows[2][4])
	repo.AssertExpectations(t)
}

func TestExportService_WriteXLSX_UnknownSurvey(t *testing.T) {
	s := NewExportService(&fakeCatalog{}, new(MockResponseRepo), zap.NewNop())

	err := s.WriteXLSX(&bytes.Buffer{}, 1)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSanitizeForExcel(t *testing.T) {
	assert.Equal(t, "'=1+1", sanitizeForExcel("=1+1"))
	assert.Equal(t, "-5", sanitizeForExcel("-5"))
	assert.Equal(t, "'@cmd", sanitizeForExcel("@cmd"))
	assert.Equal(t, "plain", sanitizeForExcel("plain"))
	assert.Equal(t, "", sanitizeForExcel(""))
}
