// Package http provides the HTTP servers for the marketplace.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/xiaot623/gogo/marketplace/internal/config"
	"github.com/xiaot623/gogo/marketplace/internal/metrics"
	"github.com/xiaot623/gogo/marketplace/internal/service"
	"github.com/xiaot623/gogo/marketplace/internal/transport/http/agentapi"
	v1 "github.com/xiaot623/gogo/marketplace/internal/transport/http/v1"
	"github.com/xiaot623/gogo/marketplace/internal/transport/ws"
)

// NewGatewayServer creates the public API gateway. It serves the agent
// catalog, accepts queries and exposes interaction state and metrics.
func NewGatewayServer(svc *service.Service, cfg *config.Config, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if cfg.RateLimitRPS > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS))))
	}

	// Handlers
	v1Handler := v1.NewHandler(svc)
	wsServer := ws.NewServer(svc, ws.DefaultConfig())

	// Register Routes
	v1Handler.RegisterRoutes(e)
	wsServer.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	return e
}

// NewAgentServer creates the agent service server.
func NewAgentServer(svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Handlers
	agentHandler := agentapi.NewHandler(svc)

	// Register Routes
	agentHandler.RegisterRoutes(e)

	return e
}
