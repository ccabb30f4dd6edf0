package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"

	"github.com/dmoraru/personas/internal/pkg/errcode"
	"github.com/dmoraru/personas/internal/pkg/response"
)

// APIKeyAuth guards the query surface with a pre-shared key carried in
// X-API-Key or an Authorization bearer. An empty configured key disables
// the check entirely; that mode is loudly logged at startup.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		logutil.GetLogger(context.Background()).Warn("api key not set, query endpoints are UNAUTHENTICATED")
		return func(c *gin.Context) {
			c.Next()
		}
	}
	expected := []byte(apiKey)
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			header := c.GetHeader("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				provided = parts[1]
			}
		}
		if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			response.Error(c, errcode.ErrUnauthorized, "invalid api key")
			c.Abort()
			return
		}
		c.Next()
	}
}
