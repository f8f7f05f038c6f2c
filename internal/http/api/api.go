// Package api wires the HTTP surface: the SMS webhook, the analytics
// report, and the health probe.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/promptline/smsrouter/internal/analytics"
	"github.com/promptline/smsrouter/internal/backend"
	"github.com/promptline/smsrouter/internal/http/api/handlers"
	"github.com/promptline/smsrouter/internal/routing"
)

// RegisterRoutes mounts all application routes on the engine.
func RegisterRoutes(engine *gin.Engine, orchestrator *routing.Orchestrator, generator backend.Generator, analyticsService *analytics.Service) {
	smsHandler := handlers.NewSMSHandler(orchestrator, generator)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/webhook/sms", smsHandler.Webhook)

	v0 := engine.Group("/v0")
	{
		v0.GET("/users/:phone/analytics", analyticsHandler.UserReport)
	}
}
