package repository

import (
	"time"
)

// CacheRepository - хранилище JSON-значений с TTL (кеш вопросов, черновики интервью)
type CacheRepository interface {
	Delete(key string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	// GetJSON возвращает apperrors.ErrNotFound при промахе
	GetJSON(key string, dest interface{}) error
}
