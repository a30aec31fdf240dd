package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/utils"
)

const TestSecret = "test-secret"

// Server is an echo instance wired the way the API wires it, minus the network.
type Server struct {
	Echo   *echo.Echo
	API    *echo.Group
	Auth   echo.MiddlewareFunc
	Store  *MemStore
	Signer *utils.TokenSigner
	Notify *RecordingNotifier
}

func NewServer() *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewValidator()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(zap.NewNop(), false)

	signer := utils.NewTokenSigner(TestSecret, time.Hour)
	return &Server{
		Echo:   e,
		API:    e.Group("/api"),
		Auth:   middleware.JWTMiddleware(signer),
		Store:  NewMemStore(),
		Signer: signer,
		Notify: &RecordingNotifier{},
	}
}

// Do performs a request with an optional JSON body and bearer token.
func (s *Server) Do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// SeedUser stores a user with password "secret123" and returns it with a token.
func (s *Server) SeedUser(t *testing.T, name string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New().String(),
		Email:        name + "@example.com",
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
	}
	require.NoError(t, s.Store.Repositories().Users.Create(context.Background(), u))
	token, err := s.Signer.Issue(u.ID)
	require.NoError(t, err)
	return u, token
}

// DecodeJSON unmarshals the recorder body into out.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

// ErrorMessage returns the "error" field of an error response.
func ErrorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	DecodeJSON(t, rec, &body)
	return body.Error
}

// RecordingNotifier captures notifications instead of sending them.
type RecordingNotifier struct {
	mu   sync.Mutex
	Err  error
	Sent []Notification
}

type Notification struct {
	Kind     string
	To       alerts.Recipient
	JobTitle string
	Amount   decimal.Decimal
}

var _ alerts.Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) record(kind string, to alerts.Recipient, title string, amount decimal.Decimal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{Kind: kind, To: to, JobTitle: title, Amount: amount})
	return n.Err
}

func (n *RecordingNotifier) Welcome(_ context.Context, to alerts.Recipient) error {
	return n.record(alerts.TaskWelcomeEmail, to, "", decimal.Zero)
}

func (n *RecordingNotifier) NewMessage(_ context.Context, to alerts.Recipient, _, _, _, jobTitle string) error {
	return n.record(alerts.TaskMessageNew, to, jobTitle, decimal.Zero)
}

func (n *RecordingNotifier) PaymentReceived(_ context.Context, to alerts.Recipient, _, _ string, amount decimal.Decimal, jobTitle string) error {
	return n.record(alerts.TaskPaymentReceived, to, jobTitle, amount)
}

// Kinds lists the recorded notification kinds in order.
func (n *RecordingNotifier) Kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.Sent))
	for _, s := range n.Sent {
		out = append(out, s.Kind)
	}
	return out
}
