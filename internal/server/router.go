package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/yungbote/agora-backend/internal/handlers"
  "github.com/yungbote/agora-backend/internal/middleware"
)

type RouterConfig struct {
  AuthMiddleware    *middleware.AuthMiddleware
  AdminHandler      *handlers.AdminHandler
  SubmissionHandler *handlers.SubmissionHandler
  ThreadHandler     *handlers.ThreadHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.APIKeyHeader, middleware.UserIDHeader},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)

// ===============
// || User      ||
// ===============
  api := router.Group("/api")
  api.Use(cfg.AuthMiddleware.RequireUser())
  {
    api.POST("/submission", cfg.SubmissionHandler.CreateLive)
    api.GET("/submission", cfg.SubmissionHandler.GetLive)
    api.PUT("/submission", cfg.SubmissionHandler.EditLive)
    api.GET("/thread/:thread_id", cfg.ThreadHandler.GetThread)
  }

// ===============
// || Admin     ||
// ===============
  admin := router.Group("/api/admin")
  admin.Use(cfg.AuthMiddleware.RequireAPIKey())
  {
    admin.POST("/start_generation_round", cfg.AdminHandler.StartGenerationRound)
  }

  return router
}
