package handler

import (
	"net/http"

	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/service"
	"github.com/labstack/echo/v4"
)

func APIKeyMiddleware(apiKeyService service.APIKeyServicer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			value := c.Request().Header.Get(internal.APIKeyHeader)
			if value == "" {
				return newError(c, nil, http.StatusUnauthorized, "missing api key")
			}
			if _, err := apiKeyService.GetAPIKeyByValue(
				c.Request().Context(), value,
			); err != nil {
				return newError(c, err, http.StatusUnauthorized, "invalid api key")
			}
			return next(c)
		}
	}
}
