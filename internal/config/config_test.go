package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
database:
  host: db.local
  user: survey
  dbname: surveys
jwt:
  secret: s3cret
cache:
  questions_ttl: 5m
rate_limit:
  submit:
    limit: 3
    window: 30s
`)
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, "surveys", cfg.Database.DBName)
	assert.Equal(t, "5432", cfg.Database.Port, "Порт по умолчанию")
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 5*time.Minute, cfg.Cache.QuestionsTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DraftTTL)
	assert.Equal(t, RateRule{Limit: 3, Window: 30 * time.Second}, cfg.RateLimit.Submit)
	assert.Equal(t, int64(10), cfg.RateLimit.Login.Limit)
	assert.Equal(t, "survey:completed", cfg.Notify.Channel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
database:
  host: db.local
  user: survey
  dbname: surveys
jwt:
  secret: from-file
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_HOST", "db.env")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "db.env", cfg.Database.Host)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db.env")
	t.Setenv("DATABASE_USER", "survey")
	t.Setenv("DATABASE_DBNAME", "surveys")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
}

func TestLoad_Incomplete(t *testing.T) {
	path := writeFile(t, "config.yaml", `
database:
  host: db.local
  user: survey
  dbname: surveys
`)
	t.Setenv("JWT_SECRET", "")

	_, err := Load(path)

	assert.ErrorIs(t, err, ErrConfigIncomplete)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "SURVEY_API_DOTENV_TEST"
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	path := writeFile(t, ".env", key+"=from-file\n")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")), "Отсутствующий файл не ошибка")
}

func TestEmailConfig_Enabled(t *testing.T) {
	assert.False(t, EmailConfig{}.Enabled())
	assert.False(t, EmailConfig{APIKey: "k", From: "a@b.c"}.Enabled())
	assert.True(t, EmailConfig{APIKey: "k", From: "a@b.c", To: []string{"x@y.z"}}.Enabled())
}
