package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cvhub/internal/api/middleware"
	"cvhub/internal/auth"
	"cvhub/internal/config"
	"cvhub/internal/events"
	"cvhub/internal/role"
	"cvhub/internal/storage"
)

// RegisterRoutes wires the handlers onto the router.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	publisher := events.NewRedisPublisher(redisClient, logger)
	authHandler := NewAuthHandler(
		db, authService, redisClient, asynqClient, logger,
		cfg.Auth.LoginRateLimitPerHour,
		cfg.Auth.LoginLockThreshold,
		cfg.Auth.LoginLockTTL(),
		cfg.Auth.ResetTokenTTL(),
		cfg.API.CookieDomain,
	)
	cvHandler := NewCVHandler(db, storageClient, publisher, logger, cfg.Clamd.Addr)
	userHandler := NewUserHandler(db, logger)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.Origins())
	authMiddleware := middleware.AuthMiddleware(authService)

	router.GET("/ws", wsHandler.HandleConnection)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/refresh-token", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password/:resetToken", authHandler.ResetPassword)
		authGroup.GET("/me", authMiddleware, authHandler.Me)
	}

	cvGroup := router.Group("/cv")
	cvGroup.Use(authMiddleware)
	{
		cvGroup.GET("", middleware.RequireRoles(role.RecruiterOnly...), cvHandler.ListCVs)
		cvGroup.GET("/myCv", middleware.RequireRoles(role.CandidateOnly...), cvHandler.GetMyCV)
		cvGroup.POST("", middleware.RequireRoles(role.CandidateOnly...), cvHandler.CreateCV)
		cvGroup.PATCH("/updateMyCv/:id", middleware.RequireRoles(role.CandidateOnly...), cvHandler.UpdateMyCV)
	}

	userGroup := router.Group("/users")
	userGroup.Use(authMiddleware, middleware.RequireRoles(role.Admin))
	{
		userGroup.GET("", userHandler.ListUsers)
		userGroup.POST("", userHandler.CreateUser)
		userGroup.GET("/:id", userHandler.GetUser)
		userGroup.PATCH("/:id", userHandler.UpdateUser)
		userGroup.DELETE("/:id", userHandler.DeleteUser)
	}
}
