package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cache     CacheConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int      `mapstructure:"read_timeout"`  // секунды
	WriteTimeout   int      `mapstructure:"write_timeout"` // секунды
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// LogLevel: уровень логирования SQL в GORM ("silent", "error", "warn", "info")
	LogLevel string `mapstructure:"log_level"`
	// MigrationsPath: источник миграций для golang-migrate
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт).
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single', используется если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // миллисекунды
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // миллисекунды
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expiration_hrs"`
}

// CacheConfig содержит настройки кеша каталога опросов
type CacheConfig struct {
	QuestionsTTL time.Duration `mapstructure:"questions_ttl"`
	// DraftTTL - время жизни незавершенного пошагового интервью
	DraftTTL time.Duration `mapstructure:"draft_ttl"`
}

// NotifyConfig содержит настройки подписчиков события "опрос пройден"
type NotifyConfig struct {
	// Channel: канал Redis pub/sub. Пустое значение отключает публикацию.
	Channel   string `mapstructure:"channel"`
	WebSocket bool   `mapstructure:"websocket"`
	Email     EmailConfig
}

// EmailConfig содержит настройки почтовых уведомлений через Resend
type EmailConfig struct {
	APIKey string   `mapstructure:"api_key"`
	From   string   `mapstructure:"from"`
	To     []string `mapstructure:"to"`
}

// Enabled сообщает, настроены ли почтовые уведомления
func (e EmailConfig) Enabled() bool {
	return e.APIKey != "" && e.From != "" && len(e.To) > 0
}

// RateLimitConfig содержит лимиты запросов
type RateLimitConfig struct {
	Submit RateRule
	Login  RateRule
}

// RateRule - не более Limit запросов за Window
type RateRule struct {
	Limit  int64
	Window time.Duration
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level       string
	Development bool
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ErrConfigIncomplete возвращается, если не заданы обязательные параметры
var ErrConfigIncomplete = errors.New("configuration is incomplete")

// LoadDotEnv дописывает в окружение переменные из .env-файлов.
// Уже заданные переменные не перезаписываются; отсутствующий файл не ошибка.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файл не обязателен: значения могут прийти из окружения
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("%w: database host, dbname and user are required (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER)", ErrConfigIncomplete)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("%w: jwt secret is required (check JWT_SECRET)", ErrConfigIncomplete)
	}
	if c.JWT.ExpirationHrs <= 0 {
		return fmt.Errorf("%w: jwt expiration must be positive", ErrConfigIncomplete)
	}
	return nil
}

// Fields возвращает несекретные параметры конфигурации для лога старта
func (c *Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("server_port", c.Server.Port),
		zap.String("db_host", c.Database.Host),
		zap.String("db_name", c.Database.DBName),
		zap.String("redis_mode", c.Redis.Mode),
		zap.Duration("questions_ttl", c.Cache.QuestionsTTL),
		zap.String("notify_channel", c.Notify.Channel),
		zap.Bool("notify_websocket", c.Notify.WebSocket),
		zap.Bool("notify_email", c.Notify.Email.Enabled()),
		zap.String("log_level", c.Log.Level),
	}
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 15)
	vip.SetDefault("server.allowed_origins", []string{"*"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.log_level", "warn")
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")

	vip.SetDefault("jwt.expiration_hrs", 24)

	vip.SetDefault("cache.questions_ttl", 10*time.Minute)
	vip.SetDefault("cache.draft_ttl", 24*time.Hour)

	vip.SetDefault("notify.channel", "survey:completed")
	vip.SetDefault("notify.websocket", true)

	vip.SetDefault("rate_limit.submit.limit", 20)
	vip.SetDefault("rate_limit.submit.window", time.Minute)
	vip.SetDefault("rate_limit.login.limit", 10)
	vip.SetDefault("rate_limit.login.window", time.Minute)

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.development", false)
}

// bindEnv привязывает переменные окружения ЯВНО
func bindEnv(vip *viper.Viper) {
	bindings := map[string]string{
		"server.port":            "SERVER_PORT",
		"server.allowed_origins": "SERVER_ALLOWED_ORIGINS",

		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.user":            "DATABASE_USER",
		"database.password":        "DATABASE_PASSWORD",
		"database.dbname":          "DATABASE_DBNAME",
		"database.sslmode":         "DATABASE_SSLMODE",
		"database.log_level":       "DATABASE_LOG_LEVEL",
		"database.migrations_path": "DATABASE_MIGRATIONS_PATH",

		"redis.mode":        "REDIS_MODE",
		"redis.addrs":       "REDIS_ADDRS",
		"redis.addr":        "REDIS_ADDR",
		"redis.password":    "REDIS_PASSWORD",
		"redis.db":          "REDIS_DB",
		"redis.master_name": "REDIS_MASTER_NAME",

		"jwt.secret":         "JWT_SECRET",
		"jwt.expiration_hrs": "JWT_EXPIRATION_HRS",

		"cache.questions_ttl": "CACHE_QUESTIONS_TTL",
		"cache.draft_ttl":     "CACHE_DRAFT_TTL",

		"notify.channel":       "NOTIFY_CHANNEL",
		"notify.websocket":     "NOTIFY_WEBSOCKET",
		"notify.email.api_key": "RESEND_API_KEY",
		"notify.email.from":    "NOTIFY_EMAIL_FROM",
		"notify.email.to":      "NOTIFY_EMAIL_TO",

		"log.level":       "LOG_LEVEL",
		"log.development": "LOG_DEVELOPMENT",
	}
	for key, env := range bindings {
		_ = vip.BindEnv(key, env)
	}
}
