package middleware

import (
  "crypto/subtle"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/agora-backend/internal/logger"
)

const (
  // APIKeyHeader carries the shared admin secret on trigger requests.
  APIKeyHeader = "X-API-Key"
  // UserIDHeader stands in for the platform's auth gate on user routes; real
  // account auth lives outside this service.
  UserIDHeader = "X-User-ID"

  ContextUserIDKey = "user_id"
)

type AuthMiddleware struct {
  log       *logger.Logger
  secretKey string
}

func NewAuthMiddleware(log *logger.Logger, secretKey string) *AuthMiddleware {
  middlewareLogger := log.With("Middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLogger, secretKey: secretKey}
}

// RequireAPIKey guards admin routes with a constant-time comparison against
// the configured secret.
func (am *AuthMiddleware) RequireAPIKey() gin.HandlerFunc {
  return func(c *gin.Context) {
    provided := c.GetHeader(APIKeyHeader)
    if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(am.secretKey)) != 1 {
      am.log.Warn("Rejected admin request with invalid API key", "path", c.FullPath())
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
      return
    }
    c.Next()
  }
}

// RequireUser resolves the calling user from the identity header and stores
// the parsed id on the gin context.
func (am *AuthMiddleware) RequireUser() gin.HandlerFunc {
  return func(c *gin.Context) {
    raw := c.GetHeader(UserIDHeader)
    if raw == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
      return
    }
    userID, err := uuid.Parse(raw)
    if err != nil || userID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
      return
    }
    c.Set(ContextUserIDKey, userID)
    c.Next()
  }
}
