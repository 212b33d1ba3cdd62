// internal/handlers/health_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/tajalli-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/tajalli-pos/internal/handlers"
	"github.com/ammerola/tajalli-pos/test/helpers"
)

type fakeDatabase struct {
	err error
}

func (f *fakeDatabase) Ping(context.Context) error { return f.err }

func (f *fakeDatabase) Health(context.Context) map[string]interface{} {
	return map[string]interface{}{"total_conns": 1}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		redisDown      bool
		expectedStatus int
		expectedHealth string
	}{
		{name: "all_healthy", expectedStatus: http.StatusOK, expectedHealth: "healthy"},
		{name: "database_down", dbErr: errors.New("connection refused"), expectedStatus: http.StatusServiceUnavailable, expectedHealth: "degraded"},
		{name: "redis_down", redisDown: true, expectedStatus: http.StatusServiceUnavailable, expectedHealth: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := helpers.SetupTestRedis(t)
			cache := redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger())
			if tt.redisDown {
				r.Server.Close()
			}
			handler := handlers.NewHealthHandler(&fakeDatabase{err: tt.dbErr}, cache, nil, "1.2.3", "test", helpers.TestLogger())

			w := httptest.NewRecorder()
			handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var status handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
			assert.Equal(t, tt.expectedHealth, status.Status)
			assert.Equal(t, "1.2.3", status.Version)
			assert.Contains(t, status.Services, "database")
			assert.Contains(t, status.Services, "redis")

			w = httptest.NewRecorder()
			handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
