package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Authorization, Content-Type, X-Request-Id"
)

// CORS answers cross-origin requests for the listed origins. An empty
// allowlist means any origin.
func CORS(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, origin := range allowlist {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			allowed[trimmed] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(allowed) == 0:
			writeCORSHeaders(c, "*", false)
		case origin != "":
			if _, ok := allowed[origin]; ok {
				writeCORSHeaders(c, origin, true)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func writeCORSHeaders(c *gin.Context, origin string, vary bool) {
	header := c.Writer.Header()
	header.Set("Access-Control-Allow-Origin", origin)
	header.Set("Access-Control-Allow-Methods", corsMethods)
	header.Set("Access-Control-Allow-Headers", corsHeaders)
	if vary {
		header.Set("Vary", "Origin")
	}
}
