package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JaredJameson/TESTHUB/internal/config"
	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
	"github.com/JaredJameson/TESTHUB/internal/services"
	"github.com/JaredJameson/TESTHUB/internal/utils"
	"github.com/JaredJameson/TESTHUB/internal/validator"
)

type HandlerManager struct {
	sessionHandler   *SessionHandler
	resultHandler    *ResultHandler
	dashboardHandler *DashboardHandler
	authMiddleware   *CasdoorAuthMiddleware
	serviceManager   services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		sessionHandler:   NewSessionHandler(serviceManager.Session(), validator, logger),
		resultHandler:    NewResultHandler(serviceManager.Result(), logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:   authMiddleware,
		serviceManager:   serviceManager,
	}
}

// SetupRoutes sets up all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Test session routes - the authenticated student's own session
		session := v1.Group("/session")
		{
			session.POST("/start", hm.sessionHandler.StartTest)
			session.GET("", hm.sessionHandler.GetSession)
			session.POST("/answer", hm.sessionHandler.AnswerQuestion)
			session.POST("/navigate", hm.sessionHandler.Navigate)
			session.POST("/submit", hm.sessionHandler.Submit)
		}

		// Result routes
		results := v1.Group("/results")
		{
			results.GET("/me", hm.resultHandler.GetMyResults)

			// Cross-student listing and export - Teachers and Admins only
			results.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.resultHandler.ListResults)
			results.GET("/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.resultHandler.ExportResults)
		}

		// Dashboard routes - Teachers and Admins only
		dashboard := v1.Group("/dashboard")
		dashboard.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin))
		{
			dashboard.GET("/overview", hm.dashboardHandler.GetOverview)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "testhub",
		})
	})
}
