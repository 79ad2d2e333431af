package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiltvault/payments-gateway/config"
)

// ConfigHandler exposes the public client configuration. Only identifiers
// safe to embed in a browser are returned; the access token itself never
// leaves the server.
type ConfigHandler struct {
	cfg config.Config
}

func NewConfigHandler(cfg config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

func (h *ConfigHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"application_id":         h.cfg.SquareApplicationID,
		"location_id":            h.cfg.SquareLocationID,
		"environment":            h.cfg.SquareEnvironment,
		"api_base_url":           h.cfg.SquareBaseURL,
		"has_access_token":       h.cfg.SquareAccessToken != "",
		"credentials_configured": h.cfg.CredentialsConfigured(),
		"timestamp":              time.Now().UTC().Format(time.RFC3339),
	})
}
