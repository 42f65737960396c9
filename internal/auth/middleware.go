package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/api"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/config"

	"github.com/gin-gonic/gin"
)

const errCodeUnauthorized = "UNAUTHORIZED"

// APIKeyMiddleware validates the API key on every request. The key is read
// from X-API-Key or from "Authorization: ApiKey <key>". When no key is
// configured the middleware passes everything through (development mode).
func APIKeyMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := cfg.External.APIKey
		if expected == "" {
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "ApiKey ") {
				key = strings.TrimPrefix(h, "ApiKey ")
			}
		}

		if key == "" {
			api.SendError(c, http.StatusUnauthorized, errCodeUnauthorized,
				"API key required: set X-API-Key or Authorization: ApiKey <key>", "")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			api.SendError(c, http.StatusUnauthorized, errCodeUnauthorized,
				"invalid API key", "")
			c.Abort()
			return
		}

		c.Next()
	}
}
