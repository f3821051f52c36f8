package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jaekim/medimap-backend/config"
	"github.com/jaekim/medimap-backend/internal/app/controller"
	"github.com/jaekim/medimap-backend/internal/middleware"
)

type Router struct {
	authController      *controller.AuthController
	facilityController  *controller.FacilityController
	ingestionController *controller.IngestionController
	authMiddleware      *middleware.AuthMiddleware
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	facilityController *controller.FacilityController,
	ingestionController *controller.IngestionController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		facilityController:  facilityController,
		ingestionController: ingestionController,
		authMiddleware:      authMiddleware,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "MEDIMAP API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
		}

		facilities := v1.Group("/facilities")
		{
			facilities.GET("", r.facilityController.ListFacilities)
			facilities.GET("/regions", r.facilityController.ListRegions)
			facilities.GET("/:id", r.facilityController.GetFacilityByID)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			admin.POST("/ingestion/run", r.ingestionController.RunIngestion)
			admin.GET("/ingestion/logs", r.ingestionController.ListLogs)
			admin.GET("/ingestion/report", r.ingestionController.GetReportURL)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
