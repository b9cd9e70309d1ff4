package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nurso96/PrintMaker-Forum/internal/handler"
)

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)

	t.Run("healthy", func(t *testing.T) {
		h := handler.NewHealthHandler(env.db, "printmaker-forum", "1.2.3", env.logger)

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rr := httptest.NewRecorder()
		h.HandleHealth(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "printmaker-forum", body["service"])
		assert.Equal(t, "1.2.3", body["version"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("database down", func(t *testing.T) {
		h := handler.NewHealthHandler(brokenDB{}, "printmaker-forum", "1.2.3", env.logger)

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rr := httptest.NewRecorder()
		h.HandleHealth(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "unhealthy", body["status"])
		assert.NotEmpty(t, body["error"])
	})
}
