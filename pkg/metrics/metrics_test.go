package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mssql-openapi/pkg/models"
)

func TestSyncFinished(t *testing.T) {
	m := New()
	start := time.Unix(1_700_000_000, 0)
	m.SyncFinished(context.Background(), &models.SyncRun{
		Trigger:    models.TriggerCron,
		Created:    2,
		Updated:    1,
		Errors:     []models.SyncItemError{{Key: "P1", Error: "x"}},
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	})
	m.SyncFinished(context.Background(), &models.SyncRun{Trigger: models.TriggerManual, Fatal: "db down"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns.WithLabelValues(models.TriggerCron, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncRuns.WithLabelValues(models.TriggerManual, "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncItems.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncItems.WithLabelValues("failed")))
	assert.Equal(t, float64(start.Unix()+3), testutil.ToFloat64(m.lastSuccess))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/v1/:res/items", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/productos/items", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/v1/:res/items", http.MethodGet, "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mssql_openapi_http_requests_total")
}
