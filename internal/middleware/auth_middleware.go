package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/pkg/auth"
)

// Ключи контекста Gin
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// AuthMiddleware обеспечивает аутентификацию по Bearer-токену
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware создает middleware аутентификации
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// bearerToken извлекает токен из заголовка Authorization.
// ok=false, если заголовка нет; ошибка, если формат неверный.
func bearerToken(c *gin.Context) (string, bool, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", true, errors.New("authorization header format must be Bearer {token}")
	}
	return parts[1], true, nil
}

func (m *AuthMiddleware) authenticate(c *gin.Context, required bool) {
	token, present, err := bearerToken(c)
	if !present {
		if required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
			return
		}
		c.Next()
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "token_format"})
		return
	}

	claims, err := m.jwtService.ParseToken(token)
	if err != nil {
		errorType := "token_invalid"
		if errors.Is(err, auth.ErrTokenExpired) {
			errorType = "token_expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": errorType})
		return
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextRole, claims.Role)
	c.Next()
}

// RequireAuth пропускает только запросы с действительным токеном
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c, true)
	}
}

// OptionalAuth распознает пользователя, если токен передан.
// Без заголовка запрос идет дальше как анонимный.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c, false)
	}
}

// AdminOnly проверяет роль администратора. Применяется после RequireAuth.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextUserID); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if c.GetString(ContextRole) != entity.UserRoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin rights required"})
			return
		}
		c.Next()
	}
}

// CurrentUser возвращает пользователя из контекста или nil для анонимного
func CurrentUser(c *gin.Context) *entity.User {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return nil
	}
	id, ok := value.(uint)
	if !ok || id == 0 {
		return nil
	}
	return &entity.User{ID: id, Email: c.GetString(ContextEmail), Role: c.GetString(ContextRole)}
}
