package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAPIKeyHandler_PostAPIKey(t *testing.T) {
	t.Run("success - key created", func(t *testing.T) {
		// arrange
		mockAPIKeyService := new(testutil.MockAPIKeyService)
		mockAPIKeyService.On("CreateAPIKey", context.Background()).
			Return(&store.APIKey{ID: 1, Value: "new-key", CreatedOn: time.Now()}, nil)

		c, rec := newJSONContext(http.MethodPost, "/api/api-keys", "")
		h := NewAPIKeyHandler(mockAPIKeyService)

		// act
		err := h.PostAPIKey(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "new-key")
	})
}

func TestAPIKeyHandler_DeleteAPIKey(t *testing.T) {
	t.Run("success - key removed", func(t *testing.T) {
		// arrange
		mockAPIKeyService := new(testutil.MockAPIKeyService)
		mockAPIKeyService.On("DeleteAPIKey", context.Background(), int64(1)).
			Return(nil)

		c, rec := newJSONContext(http.MethodDelete, "/api/api-keys/1", "")
		c.SetParamNames("id")
		c.SetParamValues("1")
		h := NewAPIKeyHandler(mockAPIKeyService)

		// act
		err := h.DeleteAPIKey(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
