package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/services"
)

type AdminHandler struct {
  log              *logger.Logger
  topicGeneration  services.TopicGenerationService
}

func NewAdminHandler(log *logger.Logger, topicGeneration services.TopicGenerationService) *AdminHandler {
  handlerLog := log.With("handler", "AdminHandler")
  return &AdminHandler{log: handlerLog, topicGeneration: topicGeneration}
}

// StartGenerationRound triggers exactly one generation round and returns its
// structured summary. Fatal round errors come back as a single explicit
// failure; benign empty rounds are a success with zero work done.
func (ah *AdminHandler) StartGenerationRound(c *gin.Context) {
  ah.log.Info("Admin trigger received, starting generation round")

  summary, err := ah.topicGeneration.RunRound(c.Request.Context())
  if err != nil {
    ah.log.Error("Generation round failed", "error", err)
    RespondError(c, http.StatusInternalServerError, "generation_round_failed", err)
    return
  }

  c.JSON(http.StatusOK, gin.H{
    "status":  "success",
    "message": summary.Message,
    "summary": summary,
  })
}
