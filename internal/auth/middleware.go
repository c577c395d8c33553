package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "authenticated_user_id"
	ctxToken  = "session_token"
)

// Middleware rejects requests without a valid session token. The token is
// taken from the Authorization bearer header when present, otherwise from
// the auth cookie.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(authCookie); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		userID, err := s.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxToken, token)
		c.Next()
	}
}

// UserIDFromContext returns the user id stored by Middleware.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// AuthTokenFromContext returns the session token stored by Middleware.
func AuthTokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxToken)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
