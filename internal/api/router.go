package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tiltvault/payments-gateway/internal/api/handlers"
	"github.com/tiltvault/payments-gateway/pkg/health"
	"github.com/tiltvault/payments-gateway/pkg/metrics"
)

type Router struct {
	payment        *handlers.PaymentHandler
	healthDoc      *handlers.HealthHandler
	clientConfig   *handlers.ConfigHandler
	balance        *handlers.BalanceHandler
	healthRegistry *health.Registry
}

func NewRouter(
	payment *handlers.PaymentHandler,
	healthDoc *handlers.HealthHandler,
	clientConfig *handlers.ConfigHandler,
	balance *handlers.BalanceHandler,
	healthRegistry *health.Registry,
) *Router {
	return &Router{
		payment:        payment,
		healthDoc:      healthDoc,
		clientConfig:   clientConfig,
		balance:        balance,
		healthRegistry: healthRegistry,
	}
}

func (r *Router) SetUp(engine *gin.Engine) {
	// Health checks (Kubernetes-style)
	engine.GET("/health", r.healthDoc.Health)
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	// Prometheus metrics
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	engine.GET("/config", r.clientConfig.Config)
	engine.GET("/balance", r.balance.Balance)

	engine.POST("/process-payment", r.payment.Process)
}
