package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
)

// fakeKV хранит значения в памяти и отвечает как go-redis
type fakeKV struct {
	data    map[string]string
	ttl     map[string]time.Duration
	failGet error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestNewCacheRepo_NilClient(t *testing.T) {
	_, err := NewCacheRepo(nil)
	assert.Error(t, err)
}

func TestCacheRepo_JSONRoundTrip(t *testing.T) {
	store := newFakeKV()
	repo := &CacheRepo{client: store}

	require.NoError(t, repo.SetJSON("survey:1:draft:abc", map[string][]string{"question_1": {"yes"}}, time.Hour))
	assert.Equal(t, time.Hour, store.ttl["survey:1:draft:abc"])

	var got map[string][]string
	require.NoError(t, repo.GetJSON("survey:1:draft:abc", &got))
	assert.Equal(t, []string{"yes"}, got["question_1"])

	require.NoError(t, repo.Delete("survey:1:draft:abc"))
	assert.ErrorIs(t, repo.GetJSON("survey:1:draft:abc", &got), apperrors.ErrNotFound)
}

func TestCacheRepo_CorruptValueIsMiss(t *testing.T) {
	store := newFakeKV()
	store.data["survey:2:questions"] = "{not json"
	repo := &CacheRepo{client: store}

	var got []string
	err := repo.GetJSON("survey:2:questions", &got)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NotContains(t, store.data, "survey:2:questions", "Битое значение должно удаляться")
}

func TestCacheRepo_GetFailure(t *testing.T) {
	store := newFakeKV()
	store.failGet = errors.New("connection refused")
	repo := &CacheRepo{client: store}

	var got []string
	err := repo.GetJSON("survey:3:questions", &got)

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
