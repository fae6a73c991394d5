// Package v1 provides the gateway HTTP handlers.
package v1

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/service"
)

const gatewayName = "PolkaAgents API Gateway"

// Handler handles gateway HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers gateway routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	// Agent registry
	e.GET("/agents", h.ListAgents)
	e.GET("/agents/:agent_id", h.GetAgent)
	e.GET("/agents/:agent_id/interactions", h.ListAgentInteractions)

	// Queries and interactions
	e.POST("/query", h.Query)
	e.GET("/interactions/:interaction_id", h.GetInteraction)
	e.GET("/interactions/:interaction_id/wait", h.WaitInteraction)
	e.GET("/users/:wallet_address/interactions", h.ListUserInteractions)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": gatewayName,
	})
}

func errorJSON(c echo.Context, status int, detail, code string) error {
	return c.JSON(status, domain.ErrorResponse{Detail: detail, Code: code})
}

// serviceError maps a service error to its HTTP response.
func serviceError(c echo.Context, err error) error {
	var rej *domain.RejectionError
	switch {
	case errors.As(err, &rej):
		status := http.StatusUnprocessableEntity
		if rej.Code == domain.RejectionPolicyBlocked {
			status = http.StatusForbidden
		}
		return errorJSON(c, status, rej.Message, rej.Code)
	case errors.Is(err, domain.ErrAgentInactive):
		return errorJSON(c, http.StatusConflict, "Agent is not active", domain.RejectionAgentInactive)
	case errors.Is(err, domain.ErrAgentNotFound):
		return errorJSON(c, http.StatusNotFound, "Agent not found", domain.RejectionAgentNotFound)
	case errors.Is(err, domain.ErrInteractionNotFound):
		return errorJSON(c, http.StatusNotFound, "Interaction not found", "")
	}

	log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Path(), err)
	return errorJSON(c, http.StatusInternalServerError, "internal error", "")
}
