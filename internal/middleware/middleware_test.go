package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/models"
)

type staticVerifier map[string]string

func (v staticVerifier) Verify(token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

type roleMap map[string]models.Role

func (m roleMap) GetByID(_ context.Context, id string) (*models.User, error) {
	r, ok := m[id]
	if !ok {
		return nil, apperr.NotFoundOrUnauthorized("User")
	}
	return &models.User{ID: id, Role: r}, nil
}

func newEcho(exposeDetails bool) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler(zap.NewNop(), exposeDetails)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	e := newEcho(false)
	e.GET("/me", func(c echo.Context) error { return c.String(http.StatusOK, UserID(c)) },
		JWTMiddleware(staticVerifier{"good": "user-1"}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	rec = serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Access token required"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	// the query parameter only counts on websocket upgrades
	req = httptest.NewRequest(http.MethodGet, "/me?token=good", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	req = httptest.NewRequest(http.MethodGet, "/me?token=good", nil)
	req.Header.Set(echo.HeaderUpgrade, "websocket")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestRequireRoles(t *testing.T) {
	e := newEcho(false)
	users := roleMap{"admin-1": models.RoleAdmin, "client-1": models.RoleClient}
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		JWTMiddleware(staticVerifier{"a": "admin-1", "c": "client-1", "ghost": "gone"}), AdminGuard(users))

	for token, want := range map[string]int{"a": http.StatusNoContent, "c": http.StatusForbidden, "ghost": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		assert.Equal(t, want, serve(e, req).Code, token)
	}
}

func TestErrorHandlerHidesDependencyDetails(t *testing.T) {
	fail := func(c echo.Context) error {
		return apperr.Dependency(errors.New("dial tcp 10.0.0.5:587: refused"), "Failed to send email")
	}

	e := newEcho(false)
	e.GET("/x", fail)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	dev := newEcho(true)
	dev.GET("/x", fail)
	rec = serve(dev, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Contains(t, rec.Body.String(), "refused")
}

func TestErrorHandlerMapsCodesAndEchoErrors(t *testing.T) {
	e := newEcho(false)
	e.GET("/missing", func(c echo.Context) error { return apperr.NotFoundOrUnauthorized("Dataset") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("raw") })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Dataset not found or unauthorized"}`, rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=client provider"`
}

func TestBindAndValidate(t *testing.T) {
	e := newEcho(false)
	e.POST("/s", func(c echo.Context) error {
		req := new(signup)
		if err := BindAndValidate(c, req); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/s", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return serve(e, req)
	}

	assert.Equal(t, http.StatusNoContent, post(`{"email":"a@b.co"}`).Code)

	rec := post(`{"email":"nope"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Valid email is required"}`, rec.Body.String())

	rec = post(`{"email":"a@b.co","role":"admin"}`)
	assert.JSONEq(t, `{"error":"role must be one of: client provider"}`, rec.Body.String())

	rec = post(`{"email":`)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}

func TestRequestLoggerNeverLogsQueryTokens(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := newEcho(false)
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/api/ws", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, JWTMiddleware(staticVerifier{"tok-valid-123": "u1"}))

	ok := serve(e, httptest.NewRequest(http.MethodGet, "/api/ws?token=tok-valid-123", nil))
	require.Equal(t, http.StatusOK, ok.Code)
	denied := serve(e, httptest.NewRequest(http.MethodGet, "/api/ws?token=tok-stolen-456", nil))
	require.Equal(t, http.StatusUnauthorized, denied.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.NotContains(t, entry.Message, "tok-")
		for key, value := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(value), "tok-", key)
		}
		assert.Equal(t, "/api/ws", entry.ContextMap()["path"])
	}
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
	assert.EqualValues(t, http.StatusUnauthorized, entries[1].ContextMap()["status"])
}
