package observability

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	mm := NewMetricsManager(zaptest.NewLogger(t).Sugar())

	r := chi.NewRouter()
	r.Use(mm.HTTPMiddleware())
	r.Get("/hello/{name}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "hi")
	})

	for _, name := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/"+name, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(mm.httpRequests.WithLabelValues("GET", "/hello/{name}", "200")))
}

func TestMetricsHandler_ExposesDomainCounters(t *testing.T) {
	mm := NewMetricsManager(zaptest.NewLogger(t).Sugar())
	mm.RecordEvent("server_started")
	mm.RecordUpdateCheck("available")
	mm.RecordPortCheck(false)
	mm.SetServerUp(true)
	mm.AddMigrations(2)

	rec := httptest.NewRecorder()
	mm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `streamline_events_total{event="server_started"} 1`)
	assert.Contains(t, body, `streamline_update_checks_total{outcome="available"} 1`)
	assert.Contains(t, body, `streamline_port_checks_total{result="busy"} 1`)
	assert.Contains(t, body, "streamline_server_up 1")
	assert.Contains(t, body, "streamline_migrations_applied_total 2")
}

type fakeSchema struct {
	version uint64
	err     error
}

func (f fakeSchema) GetSchemaVersion() (uint64, error) { return f.version, f.err }

func TestDatabaseHealthChecker(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewDatabaseHealthChecker("db", fakeSchema{version: 2}, 2).HealthCheck(ctx))

	err := NewDatabaseHealthChecker("db", fakeSchema{version: 1}, 2).HealthCheck(ctx)
	var behind *SchemaBehindError
	require.True(t, errors.As(err, &behind))
	assert.Equal(t, uint64(1), behind.Have)

	assert.Error(t, NewDatabaseHealthChecker("db", fakeSchema{err: errors.New("closed")}, 2).HealthCheck(ctx))
	assert.Error(t, NewDatabaseHealthChecker("db", nil, 2).HealthCheck(ctx))
}

func TestHealthzHandler(t *testing.T) {
	hm := NewHealthManager(zaptest.NewLogger(t).Sugar())
	hm.AddHealthChecker(NewDatabaseHealthChecker("database", fakeSchema{version: 2}, 2))

	rec := httptest.NewRecorder()
	hm.HealthzHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	require.Len(t, resp.Components, 1)
	assert.Equal(t, "database", resp.Components[0].Name)

	hm.AddHealthChecker(NewDatabaseHealthChecker("stale", fakeSchema{version: 0}, 2))
	rec = httptest.NewRecorder()
	hm.HealthzHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
