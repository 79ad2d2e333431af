package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiltvault/payments-gateway/config"
)

// HealthHandler serves the public health document. It reports credential
// presence only and never calls the upstream, so it stays cheap and safe
// to poll.
type HealthHandler struct {
	cfg config.Config
}

func NewHealthHandler(cfg config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                 "healthy",
		"service":                "square-api",
		"timestamp":              time.Now().UTC().Format(time.RFC3339),
		"environment":            h.cfg.SquareEnvironment,
		"application_id":         h.cfg.SquareApplicationID,
		"location_id":            h.cfg.SquareLocationID,
		"has_access_token":       h.cfg.SquareAccessToken != "",
		"credentials_configured": h.cfg.CredentialsConfigured(),
	})
}
