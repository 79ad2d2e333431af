package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS returns middleware enforcing the configured origin allow-list. An
// empty list allows any origin (development only). Origins not on the list
// receive no CORS headers, which makes the browser reject the response.
// OPTIONS preflights are always answered with 200 and an empty body.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	allowAny := len(allowed) == 0

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		switch {
		case allowAny:
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		default:
			if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
