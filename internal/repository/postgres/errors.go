package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// Коды ошибок Postgres
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgErrorCode извлекает SQLSTATE для pgconn и lib/pq драйверов
func pgErrorCode(err error) string {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// mapError переводит ошибки gorm/Postgres в ошибки приложения
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: referenced record no longer exists: %v", apperrors.ErrConflict, err)
	}
	return err
}
