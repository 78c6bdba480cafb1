package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.Record("/api/v1/employees", http.MethodGet, 200, 15*time.Millisecond)
	c.Record("/api/v1/employees", http.MethodGet, 200, 5*time.Millisecond)
	c.Operation("employee.create", "ok")
	c.Assignment(2, 1)

	require.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("/api/v1/employees", "GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("employee.create", "ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(c.assignments.WithLabelValues("assigned")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.assignments.WithLabelValues("unassignable")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.Operation("project.create", "ok")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "workforce_core_operations_total"))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Record("/", http.MethodGet, 500, time.Millisecond)
	c.Operation("x", "error")
	c.Assignment(1, 1)
	require.Nil(t, c.Registry())
}
