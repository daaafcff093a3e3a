package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/survey-api/internal/domain/entity"
	"github.com/yourusername/survey-api/internal/notify"
	"github.com/yourusername/survey-api/pkg/auth"
)

// WSHandler подключает администраторов к ленте завершенных опросов
type WSHandler struct {
	hub        *notify.Hub
	jwtService *auth.JWTService
	upgrader   gorillaws.Upgrader
	logger     *zap.Logger
}

// NewWSHandler создает обработчик WebSocket. allowedOrigins синхронизирован с CORS;
// "*" разрешает любой origin.
func NewWSHandler(hub *notify.Hub, jwtService *auth.JWTService, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	h := &WSHandler{
		hub:        hub,
		jwtService: jwtService,
		logger:     logger.With(zap.String("component", "ws_handler")),
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Не браузерный клиент
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			h.logger.Warn("rejected websocket origin", zap.String("origin", origin))
			return false
		},
		EnableCompression: true,
	}
	return h
}

// HandleConnection обрабатывает GET /ws/completions?ticket=...
func (h *WSHandler) HandleConnection(c *gin.Context) {
	// Тикет не логируется
	ticket := c.Query("ticket")
	if ticket == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication ticket parameter"})
		return
	}

	claims, err := h.jwtService.ParseWSTicket(ticket)
	if err != nil {
		h.logger.Info("invalid websocket ticket", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket"})
		return
	}
	if claims.Role != entity.UserRoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin rights required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := h.hub.Serve(c.Request.Context(), conn, claims.UserID)
	h.logger.Info("websocket client connected",
		zap.String("conn_id", client.ID),
		zap.Uint("user_id", claims.UserID))
}
