package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAPIKeyMiddleware(t *testing.T) {
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	t.Run("success - valid key passes through", func(t *testing.T) {
		// arrange
		mockAPIKeyService := new(testutil.MockAPIKeyService)
		mockAPIKeyService.On("GetAPIKeyByValue", context.Background(), "secret").
			Return(&store.APIKey{ID: 1, Value: "secret", CreatedOn: time.Now()}, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		req.Header.Set(internal.APIKeyHeader, "secret")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		// act
		err := APIKeyMiddleware(mockAPIKeyService)(next)(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("failure - missing key", func(t *testing.T) {
		// arrange
		mockAPIKeyService := new(testutil.MockAPIKeyService)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		// act
		err := APIKeyMiddleware(mockAPIKeyService)(next)(c)

		// assert
		assert.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
	t.Run("failure - unknown key", func(t *testing.T) {
		// arrange
		mockAPIKeyService := new(testutil.MockAPIKeyService)
		mockAPIKeyService.On("GetAPIKeyByValue", context.Background(), "wrong").
			Return(nil, sql.ErrNoRows)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		req.Header.Set(internal.APIKeyHeader, "wrong")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		// act
		err := APIKeyMiddleware(mockAPIKeyService)(next)(c)

		// assert
		assert.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
}
