package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ListAgents lists every agent in the catalog.
// GET /agents
func (h *Handler) ListAgents(c echo.Context) error {
	ctx := c.Request().Context()

	agents, err := h.service.ListAgents(ctx)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": agents,
	})
}

// GetAgent gets a specific agent by ID.
// GET /agents/:agent_id
func (h *Handler) GetAgent(c echo.Context) error {
	ctx := c.Request().Context()

	agentID, ok := parseAgentID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid agent_id", "")
	}

	agent, err := h.service.GetAgent(ctx, agentID)
	if err != nil {
		return serviceError(c, err)
	}
	if agent == nil {
		return errorJSON(c, http.StatusNotFound, "Agent not found", "")
	}

	return c.JSON(http.StatusOK, agent)
}

// ListAgentInteractions lists the interactions served by an agent.
// GET /agents/:agent_id/interactions
func (h *Handler) ListAgentInteractions(c echo.Context) error {
	ctx := c.Request().Context()

	agentID, ok := parseAgentID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid agent_id", "")
	}

	interactions, err := h.service.ListInteractionsByAgent(ctx, agentID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"interactions": interactions,
	})
}

func parseAgentID(c echo.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("agent_id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}
