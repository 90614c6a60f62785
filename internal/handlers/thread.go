package handlers

import (
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/services"
)

type ThreadHandler struct {
  log     *logger.Logger
  threads services.ThreadReadService
}

func NewThreadHandler(log *logger.Logger, threads services.ThreadReadService) *ThreadHandler {
  handlerLog := log.With("handler", "ThreadHandler")
  return &ThreadHandler{log: handlerLog, threads: threads}
}

func (th *ThreadHandler) GetThread(c *gin.Context) {
  threadID, err := uuid.Parse(c.Param("thread_id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid thread id"))
    return
  }

  view, err := th.threads.GetThread(c.Request.Context(), threadID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "load_failed", err)
    return
  }
  if view == nil {
    RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("thread not found"))
    return
  }
  RespondOK(c, gin.H{"thread": view.Thread, "posts": view.Posts})
}
