package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/eventhub-app/server/internal/container"
	"github.com/eventhub-app/server/internal/handlers"
	"github.com/eventhub-app/server/internal/middleware"
	"github.com/eventhub-app/server/internal/models"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(ct *container.Container) *gin.Engine {
	if ct.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{ct.Cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(ct.Logger))
	r.Use(middleware.MaxBodyBytes(ct.Cfg.MaxUploadBytes))
	r.Use(middleware.RateLimit(ct.Cfg.RateLimitWindow, ct.Cfg.RateLimitMax))
	r.Use(gin.Recovery())

	authHandler := handlers.NewAuthHandler(ct.UserService, ct.Logger)
	userHandler := handlers.NewUserHandler(ct.UserService, ct.Logger)
	eventHandler := handlers.NewEventHandler(ct.EventService, ct.Logger)
	chatHandler := handlers.NewChatHandler(ct.EventService, ct.Logger)
	adminHandler := handlers.NewAdminHandler(ct.UserService, ct.Logger)

	authRequired := middleware.Auth(ct.UserService, ct.Cfg.JWTSecret, ct.Logger)
	memberOnly := middleware.RequireAnyRole(models.RoleUser, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": "eventhub-api",
		})
	})

	// Realtime endpoint: clients join per-event rooms over the socket itself.
	// Auth is optional here, broadcasts carry no per-user secrets.
	r.GET("/ws", middleware.OptionalAuth(ct.UserService, ct.Cfg.JWTSecret), func(c *gin.Context) {
		if err := ct.Hub.ServeWS(c.Writer, c.Request); err != nil {
			ct.Logger.Error("websocket upgrade failed", "error", err)
		}
	})

	api := r.Group("/api")
	{
		api.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"message": "API funzionante",
			})
		})

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authRequired, authHandler.Logout)
			auth.GET("/verify", authRequired, authHandler.Verify)
			auth.GET("/me", authRequired, authHandler.Me)
		}

		// public, but namespaced under /user like the rest of the account surface
		api.GET("/user/public-events", eventHandler.PublicEvents)
		api.POST("/user/forgot-password", userHandler.ForgotPassword)
		api.POST("/user/reset-password/:token", userHandler.ResetPassword)

		user := api.Group("/user", authRequired)
		{
			user.GET("/profile", userHandler.GetProfile)
			user.PUT("/profile", userHandler.UpdateProfile)
			user.PUT("/change-password", userHandler.ChangePassword)

			events := user.Group("/events")
			{
				events.GET("", eventHandler.MyEvents)
				events.POST("", adminOnly, eventHandler.Create)
				events.PUT("/:id", adminOnly, eventHandler.Update)
				events.DELETE("/:id", adminOnly, eventHandler.Delete)

				events.POST("/:id/join", memberOnly, eventHandler.Join)
				events.POST("/:id/leave", memberOnly, eventHandler.Leave)
				events.POST("/:id/report", memberOnly, eventHandler.Report)

				events.GET("/:id/chat", memberOnly, chatHandler.GetMessages)
				events.POST("/:id/chat", memberOnly, chatHandler.AddMessage)
			}
		}

		admin := api.Group("/admin", authRequired, adminOnly)
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id/block", adminHandler.ToggleBlock)
			admin.PATCH("/users/:id/promote", adminHandler.Promote)
			admin.PATCH("/users/:id/demote", adminHandler.Demote)
			admin.GET("/stats", adminHandler.Stats)
		}
	}

	return r
}
