package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiltvault/payments-gateway/config"
)

func getJSON(t *testing.T, register func(*gin.Engine), path string) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	register(engine)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthHandler(t *testing.T) {
	t.Run("reports configured credentials", func(t *testing.T) {
		handler := NewHealthHandler(config.Config{
			SquareEnvironment:   "sandbox",
			SquareAccessToken:   "secret-token",
			SquareApplicationID: "app-123",
			SquareLocationID:    "LOC123",
		})

		code, body := getJSON(t, func(e *gin.Engine) { e.GET("/health", handler.Health) }, "/health")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "square-api", body["service"])
		assert.Equal(t, "sandbox", body["environment"])
		assert.Equal(t, true, body["has_access_token"])
		assert.Equal(t, true, body["credentials_configured"])
		assert.NotEmpty(t, body["timestamp"])

		// The token itself never appears in the document.
		raw, _ := json.Marshal(body)
		assert.NotContains(t, string(raw), "secret-token")
	})

	t.Run("healthy even without credentials", func(t *testing.T) {
		handler := NewHealthHandler(config.Config{SquareEnvironment: "production"})

		code, body := getJSON(t, func(e *gin.Engine) { e.GET("/health", handler.Health) }, "/health")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, false, body["has_access_token"])
		assert.Equal(t, false, body["credentials_configured"])
	})
}

func TestConfigHandler(t *testing.T) {
	handler := NewConfigHandler(config.Config{
		SquareEnvironment:   "sandbox",
		SquareAccessToken:   "secret-token",
		SquareApplicationID: "app-123",
		SquareLocationID:    "LOC123",
		SquareBaseURL:       "https://connect.squareupsandbox.com",
	})

	code, body := getJSON(t, func(e *gin.Engine) { e.GET("/config", handler.Config) }, "/config")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "app-123", body["application_id"])
	assert.Equal(t, "LOC123", body["location_id"])
	assert.Equal(t, "https://connect.squareupsandbox.com", body["api_base_url"])
	assert.Equal(t, true, body["has_access_token"])

	raw, _ := json.Marshal(body)
	assert.NotContains(t, string(raw), "secret-token")
}
