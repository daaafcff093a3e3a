package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/internal/domain/repository"
	apperrors "github.com/yourusername/survey-api/internal/pkg/errors"
	"github.com/yourusername/survey-api/pkg/auth"
)

// ErrInvalidCredentials - неверный email или пароль
var ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)

// CreateUserInput - данные нового пользователя
type CreateUserInput struct {
	Username string `validate:"required,min=3,max=50"`
	Email    string `validate:"required,email,max=100"`
	Password string `validate:"required,min=8,max=72"`
	Admin    bool
}

// AuthService отвечает за пользователей и выпуск токенов
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewAuthService создает сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger.With(zap.String("component", "auth_service")),
	}
}

// CreateUser создает пользователя; пароль хешируется хуком BeforeSave
func (s *AuthService) CreateUser(input CreateUserInput) (*entity.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	user := &entity.User{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		Role:     entity.UserRoleUser,
	}
	if input.Admin {
		user.Role = entity.UserRoleAdmin
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user created", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

// Login проверяет учетные данные и выпускает токен доступа
func (s *AuthService) Login(email, password string) (*entity.User, string, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if !user.CheckPassword(password) {
		s.logger.Info("login failed", zap.Uint("user_id", user.ID))
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// GetUser возвращает пользователя по ID
func (s *AuthService) GetUser(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// IssueWSTicket выпускает тикет для подключения к ленте событий
func (s *AuthService) IssueWSTicket(userID uint) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}
	if !user.IsAdmin() {
		return "", apperrors.ErrForbidden
	}
	return s.jwtService.GenerateWSTicket(user)
}
