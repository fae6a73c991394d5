package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/service"
)

const (
	defaultWaitTimeoutMs = 30000
	maxWaitTimeoutMs     = 120000
)

// Query submits a paid query to an agent.
// POST /query
func (h *Handler) Query(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.QueryRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body", "")
	}
	if strings.TrimSpace(req.WalletAddress) == "" {
		return errorJSON(c, http.StatusBadRequest, "wallet_address is required", "")
	}

	res, err := h.service.Submit(ctx, service.SubmitRequest{
		AgentID: req.AgentID,
		Query:   req.Query,
		Caller:  req.WalletAddress,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, domain.QueryResponse{
		InteractionID: res.InteractionID,
		Status:        res.Status,
		EstimatedTime: res.EstimatedTime,
	})
}

// GetInteraction gets an interaction by ID.
// GET /interactions/:interaction_id
func (h *Handler) GetInteraction(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("interaction_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid interaction_id", "")
	}

	in, err := h.service.GetInteraction(ctx, id)
	if err != nil {
		return serviceError(c, err)
	}
	if in == nil {
		return errorJSON(c, http.StatusNotFound, "Interaction not found", "")
	}

	return c.JSON(http.StatusOK, in)
}

// WaitInteraction blocks until an interaction is terminal or the timeout
// elapses, then returns it.
// GET /interactions/:interaction_id/wait?timeout_ms=
func (h *Handler) WaitInteraction(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("interaction_id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid interaction_id", "")
	}

	timeoutMs := defaultWaitTimeoutMs
	if raw := c.QueryParam("timeout_ms"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return errorJSON(c, http.StatusBadRequest, "invalid timeout_ms", "")
		}
		timeoutMs = v
	}
	if timeoutMs > maxWaitTimeoutMs {
		timeoutMs = maxWaitTimeoutMs
	}

	in, err := h.service.WaitInteraction(ctx, id, time.Duration(timeoutMs)*time.Millisecond)
	if err != nil {
		return serviceError(c, err)
	}
	if in == nil {
		return errorJSON(c, http.StatusNotFound, "Interaction not found", "")
	}

	return c.JSON(http.StatusOK, in)
}

// ListUserInteractions lists the interactions submitted by a wallet.
// GET /users/:wallet_address/interactions
func (h *Handler) ListUserInteractions(c echo.Context) error {
	ctx := c.Request().Context()

	interactions, err := h.service.ListInteractionsByCaller(ctx, c.Param("wallet_address"))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"interactions": interactions,
	})
}
