package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/config"
	"github.com/yourusername/survey-api/internal/domain/repository"
	"github.com/yourusername/survey-api/internal/form"
	"github.com/yourusername/survey-api/internal/handler"
	"github.com/yourusername/survey-api/internal/middleware"
	"github.com/yourusername/survey-api/internal/notify"
	pgRepo "github.com/yourusername/survey-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/survey-api/internal/repository/redis"
	"github.com/yourusername/survey-api/internal/service"
	"github.com/yourusername/survey-api/pkg/auth"
	"github.com/yourusername/survey-api/pkg/database"
	"github.com/yourusername/survey-api/pkg/logger"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if err := config.LoadDotEnv(); err != nil {
		zap.NewExample().Error("Failed to load .env", zap.Error(err))
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// Логгер еще не настроен
		zap.NewExample().Error("Failed to load config", zap.String("path", configPath), zap.Error(err))
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		zap.NewExample().Error("Failed to build logger", zap.Error(err))
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Info("Configuration loaded", cfg.Fields()...)

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis не обязателен: без него нет кеша, лимитов, черновиков и pub/sub
	var redisClient redis.UniversalClient
	var cacheRepo repository.CacheRepository
	redisClient, err = database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, running without cache and rate limits", zap.Error(err))
		redisClient = nil
	} else {
		repo, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			log.Fatal("Failed to initialize CacheRepo", zap.Error(err))
		}
		cacheRepo = repo
		log.Info("Successfully connected to Redis")
	}

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	surveyRepo := pgRepo.NewSurveyRepo(db)
	categoryRepo := pgRepo.NewCategoryRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	responseRepo := pgRepo.NewResponseRepo(db)

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Fatal("Failed to initialize JWTService", zap.Error(err))
	}

	// Подписчики события "опрос пройден"
	var notifiers notify.Multi
	var hub *notify.Hub
	if cfg.Notify.Channel != "" && redisClient != nil {
		notifiers = append(notifiers, notify.NewRedisPublisher(redisClient, cfg.Notify.Channel))
	}
	if cfg.Notify.WebSocket {
		hub = notify.NewHub(log)
		go hub.Run(ctx)
		notifiers = append(notifiers, hub)
	}
	if cfg.Notify.Email.Enabled() {
		emailNotifier, err := notify.NewEmailNotifier(cfg.Notify.Email.APIKey, cfg.Notify.Email.From, cfg.Notify.Email.To)
		if err != nil {
			log.Fatal("Failed to initialize email notifier", zap.Error(err))
		}
		// Почта с повторами может ждать десятки секунд, поэтому доставляется в фоне
		emailQueue := notify.NewAsync(emailNotifier, 256, 2*time.Minute, log)
		go emailQueue.Run(ctx)
		notifiers = append(notifiers, emailQueue)
	}

	// Инициализируем сервисы
	catalogService := service.NewCatalogService(surveyRepo, categoryRepo, questionRepo, cacheRepo, cfg.Cache.QuestionsTTL, log)
	responseService := service.NewResponseService(
		catalogService, responseRepo, cacheRepo, cfg.Cache.DraftTTL, form.NewBuilder(), notifiers, log)
	exportService := service.NewExportService(catalogService, responseRepo, log)
	authService := service.NewAuthService(userRepo, jwtService, log)

	// Инициализируем обработчики
	handlers := handler.Handlers{
		Survey: handler.NewSurveyHandler(catalogService, responseService, log),
		Admin:  handler.NewAdminHandler(catalogService, responseService, exportService, log),
		Auth:   handler.NewAuthHandler(authService, log),
	}
	if hub != nil {
		handlers.WS = handler.NewWSHandler(hub, jwtService, cfg.Server.AllowedOrigins, log)
	}

	// Инициализируем роутер Gin
	isProduction := gin.Mode() == gin.ReleaseMode
	router := gin.New()
	router.Use(middleware.RequestLogger(log), middleware.Recovery(log))

	// В production не доверяем прокси-заголовкам (защита от IP spoofing)
	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	// Настройка CORS
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.Server.AllowedOrigins) == 0 || cfg.Server.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	handler.RegisterRoutes(router, handlers,
		middleware.NewAuthMiddleware(jwtService),
		middleware.NewRateLimiter(redisClient, log),
		cfg.RateLimit)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Отправляем сигнал завершения для всех горутин
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("Error closing Redis client", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server exited properly")
}
