package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// InternalTokenMiddleware guards operator-only routes (job triggers).
// Callers present the shared token in X-Internal-Token; with no token
// configured the routes are closed, not open.
type InternalTokenMiddleware struct {
	log   *logger.Logger
	token string
}

func NewInternalTokenMiddleware(log *logger.Logger, token string) *InternalTokenMiddleware {
	return &InternalTokenMiddleware{log: log.With("middleware", "InternalTokenMiddleware"), token: token}
}

func (im *InternalTokenMiddleware) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if im.token == "" {
			im.log.Warn("internal route hit with no INTERNAL_API_TOKEN configured", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "internal routes disabled"})
			return
		}
		got := c.GetHeader("X-Internal-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(im.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
