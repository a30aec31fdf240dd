package auth

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/testutil"
)

func setup(t *testing.T) *testutil.Server {
	t.Helper()
	srv := testutil.NewServer()
	NewHandler(srv.Store.Repositories().Users, srv.Signer, srv.Notify, zap.NewNop()).
		Register(srv.API.Group("/auth"), srv.Auth)
	return srv
}

func register(t *testing.T, srv *testutil.Server, email string) *authBody {
	t.Helper()
	rec := srv.Do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"email": email, "password": "hunter22", "name": "Ada", "role": "provider"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := &authBody{}
	testutil.DecodeJSON(t, rec, out)
	return out
}

type authBody struct {
	Token string         `json:"token"`
	User  map[string]any `json:"user"`
}

func TestRegisterReturnsTokenAndRedactedUser(t *testing.T) {
	srv := setup(t)

	out := register(t, srv, "Ada@Example.com")
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "ada@example.com", out.User["email"])
	assert.Equal(t, "provider", out.User["role"])
	assert.NotContains(t, out.User, "password")
	assert.NotContains(t, out.User, "PasswordHash")

	assert.Equal(t, []string{alerts.TaskWelcomeEmail}, srv.Notify.Kinds())

	id, err := srv.Signer.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User["id"], id)
}

func TestRegisterDuplicateEmailKeepsOneRow(t *testing.T) {
	srv := setup(t)
	register(t, srv, "ada@example.com")

	rec := srv.Do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"email": "ADA@example.com", "password": "other-pass", "name": "Imposter"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, srv.Store.CountUsers())
}

func TestRegisterValidation(t *testing.T) {
	srv := setup(t)
	cases := map[string]map[string]string{
		"bad email":      {"email": "nope", "password": "hunter22", "name": "A"},
		"short password": {"email": "a@example.com", "password": "123", "name": "A"},
		"blank name":     {"email": "a@example.com", "password": "hunter22", "name": "   "},
		"admin role":     {"email": "a@example.com", "password": "hunter22", "name": "A", "role": "admin"},
		"header in name": {"email": "a@example.com", "password": "hunter22", "name": "Bob\r\nBcc: victim@example.com"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := srv.Do(t, http.MethodPost, "/api/auth/register", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Zero(t, srv.Store.CountUsers())
	assert.Empty(t, srv.Notify.Kinds())
}

func TestRegisterSucceedsWhenWelcomeEmailFails(t *testing.T) {
	srv := setup(t)
	srv.Notify.Err = errors.New("smtp down")

	register(t, srv, "ada@example.com")
	assert.Equal(t, 1, srv.Store.CountUsers())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	srv := setup(t)
	register(t, srv, "ada@example.com")

	wrongPass := srv.Do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong-one"}, "")
	unknown := srv.Do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "bob@example.com", "password": "wrong-one"}, "")

	assert.Equal(t, http.StatusBadRequest, wrongPass.Code)
	assert.Equal(t, wrongPass.Code, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
	assert.Equal(t, "Invalid credentials", testutil.ErrorMessage(t, wrongPass))
}

func TestLoginAndMe(t *testing.T) {
	srv := setup(t)
	register(t, srv, "ada@example.com")

	rec := srv.Do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ADA@example.com", "password": "hunter22"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out authBody
	testutil.DecodeJSON(t, rec, &out)

	rec = srv.Do(t, http.MethodGet, "/api/auth/me", nil, out.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	testutil.DecodeJSON(t, rec, &me)
	assert.Equal(t, "Ada", me.Name)
	assert.Empty(t, me.PasswordHash)

	assert.Equal(t, http.StatusUnauthorized, srv.Do(t, http.MethodGet, "/api/auth/me", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, srv.Do(t, http.MethodGet, "/api/auth/me", nil, "garbage").Code)
}
