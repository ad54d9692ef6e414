package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/haatos/simple-qa/internal/service"
	"github.com/labstack/echo/v4"
)

func SetupAPIKeyRoutes(g *echo.Group, apiKeyService service.APIKeyServicer) {
	h := NewAPIKeyHandler(apiKeyService)

	g.POST("/api-keys", h.PostAPIKey)
	g.GET("/api-keys", h.GetAPIKeys)
	g.GET("/api-keys/:id", h.GetAPIKey)
	g.DELETE("/api-keys/:id", h.DeleteAPIKey)
}

func NewAPIKeyHandler(apiKeyService service.APIKeyServicer) *APIKeyHandler {
	return &APIKeyHandler{apiKeyService}
}

type APIKeyHandler struct {
	apiKeyService service.APIKeyServicer
}

func (h *APIKeyHandler) PostAPIKey(c echo.Context) error {
	key, err := h.apiKeyService.CreateAPIKey(c.Request().Context())
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to create api key")
	}
	return c.JSON(http.StatusCreated, key)
}

func (h *APIKeyHandler) GetAPIKeys(c echo.Context) error {
	keys, err := h.apiKeyService.ListAPIKeys(c.Request().Context())
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list api keys")
	}
	return c.JSON(http.StatusOK, keys)
}

func (h *APIKeyHandler) GetAPIKey(c echo.Context) error {
	p := new(APIKeyParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid api key id")
	}

	key, err := h.apiKeyService.GetAPIKeyByID(c.Request().Context(), p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "api key not found")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to read api key")
	}
	return c.JSON(http.StatusOK, key)
}

func (h *APIKeyHandler) DeleteAPIKey(c echo.Context) error {
	p := new(APIKeyParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid api key id")
	}

	if err := h.apiKeyService.DeleteAPIKey(c.Request().Context(), p.ID); err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to delete api key")
	}
	return c.NoContent(http.StatusNoContent)
}
