package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"roomsplit/internal/token"
)

// ErrMissingAuthHeader means the request carried no Authorization header.
var ErrMissingAuthHeader = errors.New("missing Authorization header")

// ErrMalformedAuthHeader means the header was present but not "Bearer <token>".
var ErrMalformedAuthHeader = errors.New("malformed Authorization header")

// userIDContextKey is the Gin context key Auth sets and handlers read.
const userIDContextKey = "user_id"

// Auth returns a Gin middleware that verifies the bearer token on every
// request via tokens and sets the asserted user ID in the Gin context.
func Auth(tokens *token.Service) gin.HandlerFunc {
	if tokens == nil {
		panic("middleware: token service cannot be nil for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			logrus.WithError(err).Warn("auth middleware: could not extract token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		userID, err := tokens.Verify(tokenStr)
		if err != nil {
			logrus.WithError(err).Warn("auth middleware: invalid token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(userIDContextKey, userID)
		logrus.WithField("user_id", userID).Debug("auth middleware: authenticated")
		c.Next()
	}
}

// UserID returns the authenticated user ID set by Auth, empty if absent.
func UserID(c *gin.Context) string {
	userID, _ := c.Get(userIDContextKey)
	id, _ := userID.(string)
	return id
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedAuthHeader
	}
	return strings.TrimSpace(parts[1]), nil
}
