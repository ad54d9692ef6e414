package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/haatos/simple-qa/internal/service"
	"github.com/labstack/echo/v4"
)

func SetupAgentRoutes(g *echo.Group, agentService service.AgentServicer) {
	h := NewAgentHandler(agentService)

	g.POST("/agents", h.PostAgent)
	g.GET("/agents", h.GetAgents)
	g.GET("/agents/:agent_id", h.GetAgent)
	g.PUT("/agents/:agent_id", h.PutAgent)
	g.DELETE("/agents/:agent_id", h.DeleteAgent)
	g.POST("/agents/:agent_id/test-connection", h.PostTestConnection)
}

func NewAgentHandler(agentService service.AgentServicer) *AgentHandler {
	return &AgentHandler{agentService}
}

type AgentHandler struct {
	agentService service.AgentServicer
}

func (h *AgentHandler) PostAgent(c echo.Context) error {
	p := new(AgentParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid agent parameters")
	}
	if p.Name == "" || p.Hostname == "" || p.Username == "" || p.Workspace == "" {
		return newError(
			c, nil, http.StatusBadRequest,
			"name, hostname, username and workspace are required",
		)
	}

	agent, err := h.agentService.CreateAgent(
		c.Request().Context(),
		p.Name, p.Hostname, p.Username, p.Workspace, p.Description, p.SSHPrivateKey,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return newError(c, err, http.StatusConflict, "an agent with this name already exists")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to create agent")
	}
	return c.JSON(http.StatusCreated, agent)
}

func (h *AgentHandler) GetAgents(c echo.Context) error {
	agents, err := h.agentService.ListAgents(c.Request().Context())
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list agents")
	}
	return c.JSON(http.StatusOK, agents)
}

func (h *AgentHandler) GetAgent(c echo.Context) error {
	p := new(AgentParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid agent id")
	}

	agent, err := h.agentService.GetAgentByID(c.Request().Context(), p.AgentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "agent not found")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to read agent")
	}
	return c.JSON(http.StatusOK, agent)
}

func (h *AgentHandler) PutAgent(c echo.Context) error {
	p := new(AgentParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid agent parameters")
	}

	if err := h.agentService.UpdateAgent(
		c.Request().Context(),
		p.AgentID, p.Name, p.Hostname, p.Username, p.Workspace, p.Description,
	); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to update agent")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AgentHandler) DeleteAgent(c echo.Context) error {
	p := new(AgentParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid agent id")
	}

	if err := h.agentService.DeleteAgent(c.Request().Context(), p.AgentID); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to delete agent")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AgentHandler) PostTestConnection(c echo.Context) error {
	p := new(AgentParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid agent id")
	}

	if err := h.agentService.TestAgentConnection(
		c.Request().Context(), p.AgentID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "agent not found")
		}
		return newError(c, err, http.StatusBadGateway, "unable to connect to agent")
	}
	return c.JSON(http.StatusOK, map[string]any{"connected": true})
}
