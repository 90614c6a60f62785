package main

import (
  "fmt"
  "os"

  "github.com/yungbote/agora-backend/internal/db"
  "github.com/yungbote/agora-backend/internal/handlers"
  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/middleware"
  "github.com/yungbote/agora-backend/internal/repos"
  "github.com/yungbote/agora-backend/internal/server"
  "github.com/yungbote/agora-backend/internal/services"
  "github.com/yungbote/agora-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  secretKey := utils.GetEnv("BACKEND_SECRET_KEY", "default_secret_for_local_dev", log)
  port := utils.GetEnv("PORT", "8000", log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  submissionRepo := repos.NewSubmissionRepo(thePG, log)
  threadRepo := repos.NewThreadRepo(thePG, log)
  postRepo := repos.NewPostRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  synthesizer := services.NewTopicSynthesizer(log, openaiClient)
  topicGenService := services.NewTopicGenerationService(
    thePG,
    log,
    submissionRepo,
    userRepo,
    threadRepo,
    postRepo,
    openaiClient,
    synthesizer,
  )
  intakeService := services.NewSubmissionIntakeService(thePG, log, submissionRepo, userRepo)
  threadReadService := services.NewThreadReadService(log, threadRepo, postRepo)

  // Handlers
  log.Info("Setting up Handlers from main...")
  adminHandler := handlers.NewAdminHandler(log, topicGenService)
  submissionHandler := handlers.NewSubmissionHandler(log, intakeService)
  threadHandler := handlers.NewThreadHandler(log, threadReadService)

  // Middleware
  authMiddleware := middleware.NewAuthMiddleware(log, secretKey)

  // Router
  router := server.NewRouter(server.RouterConfig{
    AuthMiddleware:    authMiddleware,
    AdminHandler:      adminHandler,
    SubmissionHandler: submissionHandler,
    ThreadHandler:     threadHandler,
  })

  log.Info("Starting server", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server exited", "error", err)
    os.Exit(1)
  }
}
