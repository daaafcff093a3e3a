package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/survey-api/internal/config"
	"github.com/yourusername/survey-api/internal/middleware"
)

// Handlers - набор обработчиков API. WS может быть nil, если лента отключена.
type Handlers struct {
	Survey *SurveyHandler
	Admin  *AdminHandler
	Auth   *AuthHandler
	WS     *WSHandler
}

// RegisterRoutes настраивает маршруты API на router
func RegisterRoutes(
	router *gin.Engine,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	limits config.RateLimitConfig,
) {
	surveyID := middleware.ExtractUintParam("id", "surveyID")

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", rateLimiter.Limit("login", limits.Login), h.Auth.Register)
			authGroup.POST("/login", rateLimiter.Limit("login", limits.Login), h.Auth.Login)

			authed := authGroup.Group("")
			authed.Use(authMiddleware.RequireAuth())
			{
				authed.GET("/me", h.Auth.GetMe)
				authed.POST("/ws-ticket", h.Auth.GenerateWsTicket)
			}
		}

		// Прохождение опросов: пользователь распознается, если передан токен
		surveys := api.Group("/surveys")
		surveys.Use(authMiddleware.OptionalAuth())
		{
			surveys.GET("", h.Survey.ListSurveys)

			withID := surveys.Group("/:id")
			withID.Use(surveyID)
			{
				withID.GET("", h.Survey.GetForm)
				withID.POST("", rateLimiter.Limit("submit", limits.Submit), h.Survey.Submit)
				withID.GET("/steps/:step", h.Survey.GetStep)
				withID.POST("/steps/:step", rateLimiter.Limit("submit", limits.Submit), h.Survey.SubmitStep)
			}
		}
		api.GET("/confirm/:uuid", h.Survey.Confirm)

		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			admin.GET("/surveys", h.Admin.ListSurveys)
			admin.POST("/surveys", h.Admin.CreateSurvey)

			adminSurvey := admin.Group("/surveys/:id")
			adminSurvey.Use(surveyID)
			{
				adminSurvey.GET("", h.Admin.GetSurvey)
				adminSurvey.PUT("", h.Admin.UpdateSurvey)
				adminSurvey.DELETE("", h.Admin.DeleteSurvey)
				adminSurvey.GET("/categories", h.Admin.ListCategories)
				adminSurvey.POST("/categories", h.Admin.CreateCategory)
				adminSurvey.POST("/questions", h.Admin.CreateQuestion)
				adminSurvey.GET("/responses", h.Admin.ListResponses)
				adminSurvey.GET("/export.xlsx", h.Admin.ExportResponses)
			}

			category := admin.Group("/categories/:id")
			category.Use(middleware.ExtractUintParam("id", "categoryID"))
			{
				category.PUT("", h.Admin.UpdateCategory)
				category.DELETE("", h.Admin.DeleteCategory)
			}

			question := admin.Group("/questions/:id")
			question.Use(middleware.ExtractUintParam("id", "questionID"))
			{
				question.PUT("", h.Admin.UpdateQuestion)
				question.DELETE("", h.Admin.DeleteQuestion)
			}
		}
	}

	if h.WS != nil {
		router.GET("/ws/completions", h.WS.HandleConnection)
	}
}
