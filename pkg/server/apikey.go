package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"mssql-openapi/pkg/util"
)

const apiKeyHeader = "x-api-key"

// RequireAPIKey 校验 x-api-key，缺失 401，不匹配 403
func RequireAPIKey(keys []string) gin.HandlerFunc {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed = append(allowed, []byte(k))
		}
	}
	return func(c *gin.Context) {
		provided := c.GetHeader(apiKeyHeader)
		if provided == "" {
			util.ErrWithCode(c, http.StatusUnauthorized, "missing_api_key")
			return
		}
		p := []byte(provided)
		for _, k := range allowed {
			if subtle.ConstantTimeCompare(k, p) == 1 {
				c.Next()
				return
			}
		}
		util.ErrWithCode(c, http.StatusForbidden, "invalid_api_key")
	}
}
