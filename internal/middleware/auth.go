package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

// TokenParser validates a token string and returns the user id it carries.
type TokenParser func(tokenString string) (uuid.UUID, error)

// Auth returns a gin middleware enforcing a Bearer token on every request.
// Guest tokens pass through like any other; the sentinel user id they carry
// routes the request down the ephemeral path in the services.
func Auth(parse TokenParser, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed token header"})
			return
		}

		userID, err := parse(parts[1])
		if err != nil {
			log.Warn("Token verification failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext extracts the authenticated user id set by Auth.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok
}
