package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yourusername/survey-api/internal/domain/entity"
)

const (
	issuer = "survey-api"

	audienceAPI = "survey-user"
	audienceWS  = "survey-ws"

	usageWSTicket = "websocket_auth"

	// Время жизни тикета для WebSocket
	wsTicketExpiry = time.Minute
)

// Ошибки проверки токена
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenInvalid   = errors.New("token validation failed")
)

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	// Usage отличает WS-тикет от токена доступа
	Usage string `json:"usage,omitempty"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет HS256 токены
type JWTService struct {
	secret        []byte
	expirationHrs int
	now           func() time.Time
}

// NewJWTService создает сервис JWT
func NewJWTService(secret string, expirationHrs int) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}
	if expirationHrs <= 0 {
		return nil, errors.New("jwt expiration must be positive")
	}
	return &JWTService{secret: []byte(secret), expirationHrs: expirationHrs, now: time.Now}, nil
}

// GenerateToken выпускает токен доступа пользователя
func (s *JWTService) GenerateToken(user *entity.User) (string, error) {
	now := s.now()
	claims := &JWTCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour * time.Duration(s.expirationHrs))),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{audienceAPI},
		},
	}
	return s.sign(claims)
}

// GenerateWSTicket создает короткоживущий JWT для аутентификации WebSocket
func (s *JWTService) GenerateWSTicket(user *entity.User) (string, error) {
	now := s.now()
	claims := &JWTCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Usage:  usageWSTicket,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(wsTicketExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{audienceWS},
		},
	}
	return s.sign(claims)
}

func (s *JWTService) sign(claims *JWTCustomClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет токен доступа
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	claims, err := s.parse(tokenString, audienceAPI)
	if err != nil {
		return nil, err
	}
	if claims.Usage != "" {
		return nil, fmt.Errorf("%w: unexpected token usage %q", ErrTokenInvalid, claims.Usage)
	}
	return claims, nil
}

// ParseWSTicket проверяет WS-тикет
func (s *JWTService) ParseWSTicket(ticket string) (*JWTCustomClaims, error) {
	claims, err := s.parse(ticket, audienceWS)
	if err != nil {
		return nil, err
	}
	if claims.Usage != usageWSTicket {
		return nil, fmt.Errorf("%w: invalid ticket usage", ErrTokenInvalid)
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString, audience string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrTokenExpired
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if !claims.VerifyAudience(audience, true) || !claims.VerifyIssuer(issuer, true) {
		return nil, fmt.Errorf("%w: wrong audience or issuer", ErrTokenInvalid)
	}
	return claims, nil
}
