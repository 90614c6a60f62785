package handlers

import (
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/agora-backend/internal/logger"
  "github.com/yungbote/agora-backend/internal/middleware"
  "github.com/yungbote/agora-backend/internal/services"
)

type SubmissionHandler struct {
  log    *logger.Logger
  intake services.SubmissionIntakeService
}

func NewSubmissionHandler(log *logger.Logger, intake services.SubmissionIntakeService) *SubmissionHandler {
  handlerLog := log.With("handler", "SubmissionHandler")
  return &SubmissionHandler{log: handlerLog, intake: intake}
}

type submissionRequest struct {
  Text string `json:"text" binding:"required"`
}

func callerUserID(c *gin.Context) (uuid.UUID, error) {
  raw, ok := c.Get(middleware.ContextUserIDKey)
  if !ok {
    return uuid.Nil, fmt.Errorf("missing user identity")
  }
  userID, ok := raw.(uuid.UUID)
  if !ok || userID == uuid.Nil {
    return uuid.Nil, fmt.Errorf("invalid user identity")
  }
  return userID, nil
}

func (sh *SubmissionHandler) CreateLive(c *gin.Context) {
  userID, err := callerUserID(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  var req submissionRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }

  submission, err := sh.intake.CreateLive(c.Request.Context(), userID, req.Text)
  if err != nil {
    RespondError(c, http.StatusConflict, "create_failed", err)
    return
  }
  c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

func (sh *SubmissionHandler) GetLive(c *gin.Context) {
  userID, err := callerUserID(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  submission, err := sh.intake.GetLive(c.Request.Context(), userID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "load_failed", err)
    return
  }
  if submission == nil {
    RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("no live submission"))
    return
  }
  RespondOK(c, gin.H{"submission": submission})
}

func (sh *SubmissionHandler) EditLive(c *gin.Context) {
  userID, err := callerUserID(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
    return
  }

  var req submissionRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }

  submission, err := sh.intake.EditLive(c.Request.Context(), userID, req.Text)
  if err != nil {
    RespondError(c, http.StatusNotFound, "edit_failed", err)
    return
  }
  RespondOK(c, gin.H{"submission": submission})
}
