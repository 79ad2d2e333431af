package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// fallbackBody is a pre-rendered error envelope, so a panicking handler
// still produces well-formed JSON even if encoding the primary error would
// itself fail.
const fallbackBody = `{"success":false,"error":{"message":"internal server error","code":"INTERNAL_ERROR"}}`

// Recovery converts panics into the gateway's uniform error envelope.
// Nothing is allowed to raise past the outermost handler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		slog.ErrorContext(c.Request.Context(), "panic recovered",
			slog.Any("panic", err),
			slog.String("path", c.Request.URL.Path),
		)
		c.Data(http.StatusInternalServerError, "application/json", []byte(fallbackBody))
		c.Abort()
	})
}
