package api

import (
	"github.com/gin-gonic/gin"

	"github.com/tiltvault/payments-gateway/pkg/logger"
	"github.com/tiltvault/payments-gateway/pkg/metrics"
)

func NewGinEngine(allowedOrigins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(
		metrics.GinMiddleware(),
		logger.CorrelationMiddleware(),
		logger.RequestLogger(),
		CORS(allowedOrigins),
		Recovery(),
	)
	return engine
}
