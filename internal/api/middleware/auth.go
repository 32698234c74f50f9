package middleware

import (
	"net/http"
	"strings"

	"tribe-service/internal/auth"
	"tribe-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

// Auth validates the bearer token and stores the caller's user id in
// the request context.
func Auth(authenticator *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.AbortError(c, http.StatusUnauthorized, "authorization header is required")
			return
		}

		identity, err := authenticator.Authenticate(header)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(userIDKey, identity.ID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
