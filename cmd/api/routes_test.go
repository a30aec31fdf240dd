package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/config"
	"github.com/sudo-init-do/distal/internal/messaging"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/payments"
	"github.com/sudo-init-do/distal/internal/storage"
	"github.com/sudo-init-do/distal/internal/testutil"
	"github.com/sudo-init-do/distal/internal/utils"
)

func testServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := zap.NewNop()
	m := metrics.New()
	repos := testutil.NewMemStore().Repositories()
	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	return newServer(serverDeps{
		cfg: &config.Config{
			AppEnv:         "test",
			CORSOrigin:     "*",
			AuthRateLimit:  10,
			MaxUploadBytes: 1 << 20,
		},
		log:        log,
		repos:      repos,
		signer:     utils.NewTokenSigner(testutil.TestSecret, time.Hour),
		notifier:   &testutil.RecordingNotifier{},
		files:      files,
		hub:        messaging.NewHub(repos.Messages, "*", m, log),
		reconciler: payments.NewReconciler(repos.Payments, time.Minute, m, log),
		metrics:    m,
	})
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(testServer(t), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"timestamp"`)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := testServer(t)
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/jobs"},
		{http.MethodPost, "/api/datasets"},
		{http.MethodGet, "/api/messages/contacts"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/payments"},
	} {
		rec := serve(e, r.method, r.path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.path)
	}

	rec := serve(e, http.MethodGet, "/api/datasets", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposeRouteTemplates(t *testing.T) {
	e := testServer(t)
	serve(e, http.MethodGet, "/api/health", "")

	rec := serve(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `distal_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}

func TestJSONBodyLimit(t *testing.T) {
	big := `{"name":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := serve(testServer(t), http.MethodPost, "/api/auth/register", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimitString(t *testing.T) {
	assert.Equal(t, "50M", bodyLimitString(50<<20))
	assert.Equal(t, "2K", bodyLimitString(2048))
	assert.Equal(t, "1536", bodyLimitString(1536))
}
