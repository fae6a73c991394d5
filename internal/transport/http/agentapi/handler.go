// Package agentapi provides HTTP handlers for the agent service. The
// gateway and operators call it to run a query inline.
package agentapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/service"
)

const agentServiceName = "PolkaAgents Agent Service"

// Handler handles agent service requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new agent service handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers agent service routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/predict", h.Predict)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": agentServiceName,
	})
}

// Predict runs a query against an agent and returns the result text.
// POST /predict
func (h *Handler) Predict(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.PredictRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Detail: "invalid request body"})
	}

	resp, err := h.service.Predict(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrAgentNotFound) {
			return c.JSON(http.StatusNotFound, domain.ErrorResponse{Detail: "Agent not found"})
		}
		log.Printf("ERROR: predict interaction=%d agent=%d: %v", req.InteractionID, req.AgentID, err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Detail: err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}
