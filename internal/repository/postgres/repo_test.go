package postgres

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/survey-api/internal/domain/entity"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// newMockDB открывает gorm поверх sqlmock с диалектом Postgres
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestOrderedQuestions_SQL(t *testing.T) {
	db, mock := newMockDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var questions []entity.Question
		return orderedQuestions(tx, 7).Find(&questions)
	})

	assert.Contains(t, sql, "LEFT JOIN categories ON categories.id = questions.category_id")
	assert.Contains(t, sql, "questions.survey_id = 7")
	assert.Contains(t, sql, "ORDER BY categories.sort_order ASC NULLS LAST,questions.sort_order ASC,questions.id ASC")

	// DryRun не обращается к базе
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepo_CreateWithAnswers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResponseRepo(db)

	text := "hello"
	number := int64(3)
	answers := []entity.Answer{
		&entity.AnswerText{AnswerBase: entity.AnswerBase{QuestionID: 1}, Body: &text},
		&entity.AnswerInteger{AnswerBase: entity.AnswerBase{QuestionID: 2}, Body: &number},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "responses"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "answer_texts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "answer_integers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectCommit()

	response := &entity.Response{SurveyID: 1, InterviewUUID: "0123456789abcdef0123456789abcdef"}
	require.NoError(t, repo.CreateWithAnswers(response, answers))

	assert.Equal(t, uint(10), response.ID)
	require.Len(t, response.Answers, 2)
	for _, answer := range response.Answers {
		assert.Equal(t, uint(10), answer.GetResponseID())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepo_CreateWithAnswers_RollsBackOnAnswerFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResponseRepo(db)

	text := "hello"
	number := int64(3)
	answers := []entity.Answer{
		&entity.AnswerText{AnswerBase: entity.AnswerBase{QuestionID: 1}, Body: &text},
		&entity.AnswerInteger{AnswerBase: entity.AnswerBase{QuestionID: 2}, Body: &number},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "responses"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "answer_texts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "answer_integers"`)).
		WillReturnError(errors.New("disk full"))
	// Ни одного COMMIT: строка responses не должна пережить транзакцию
	mock.ExpectRollback()

	response := &entity.Response{SurveyID: 1, InterviewUUID: "0123456789abcdef0123456789abcdef"}
	err := repo.CreateWithAnswers(response, answers)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "question 2")
	assert.Nil(t, response.Answers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseRepo_CreateWithAnswers_DeletedQuestionIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResponseRepo(db)

	text := "hello"
	answers := []entity.Answer{
		&entity.AnswerText{AnswerBase: entity.AnswerBase{QuestionID: 1}, Body: &text},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "responses"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "answer_texts"`)).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})
	mock.ExpectRollback()

	response := &entity.Response{SurveyID: 1, InterviewUUID: "0123456789abcdef0123456789abcdef"}
	err := repo.CreateWithAnswers(response, answers)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", gorm.ErrRecordNotFound, apperrors.ErrNotFound},
		{"pgx unique", &pgconn.PgError{Code: pgUniqueViolation}, apperrors.ErrConflict},
		{"pq unique", &pq.Error{Code: pgUniqueViolation}, apperrors.ErrConflict},
		{"pq foreign key", &pq.Error{Code: pgForeignKeyViolation}, apperrors.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.want)
		})
	}

	assert.NoError(t, mapError(nil))
	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}
