package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func TestProcessorDeliversWelcome(t *testing.T) {
	m := new(mockMailer)
	m.On("Send", mock.Anything, "ada@example.com", "Welcome to Distal, Ada!", mock.Anything).Return(nil).Once()

	p := NewProcessor(m, zap.NewNop())
	payload, err := json.Marshal(WelcomeEmailPayload{
		UserID:   "u1",
		Envelope: welcomeEnvelope(Recipient{ID: "u1", Name: "Ada", Email: "ada@example.com"}, "https://distal.dev/"),
	})
	require.NoError(t, err)

	require.NoError(t, p.handleWelcomeEmail(context.Background(), asynq.NewTask(TaskWelcomeEmail, payload)))
	m.AssertExpectations(t)
}

func TestProcessorReturnsSendErrorForRetry(t *testing.T) {
	m := new(mockMailer)
	m.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("relay down"))

	p := NewProcessor(m, zap.NewNop())
	payload, _ := json.Marshal(PaymentReceivedPayload{PaymentID: "p1", Envelope: EmailEnvelope{To: "x@example.com"}})

	err := p.handlePaymentReceived(context.Background(), asynq.NewTask(TaskPaymentReceived, payload))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestProcessorSkipsRetryOnBadPayload(t *testing.T) {
	p := NewProcessor(new(mockMailer), zap.NewNop())
	err := p.handleMessageNew(context.Background(), asynq.NewTask(TaskMessageNew, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTemplatesEscapeUserInput(t *testing.T) {
	env := newMessageEnvelope(Recipient{Name: "<b>Eve</b>", Email: "eve@example.com"}, "Scan <script>")
	assert.NotContains(t, env.Body, "<script>")
	assert.Contains(t, env.Body, "&lt;b&gt;Eve&lt;/b&gt;")

	pay := paymentReceivedEnvelope(Recipient{Name: "Bo"}, decimal.RequireFromString("5000"), "Archive")
	assert.Contains(t, pay.Body, "$5000.00")
	assert.Equal(t, `Payment received for "Archive"`, pay.Subject)
}

func TestDirectSendsInline(t *testing.T) {
	m := new(mockMailer)
	m.On("Send", mock.Anything, "p@example.com", `New message regarding "Census scans"`, mock.Anything).Return(nil).Once()

	d := NewDirect(m, "http://localhost", zap.NewNop())
	require.NoError(t, d.NewMessage(context.Background(), Recipient{Email: "p@example.com", Name: "P"}, "m1", "s1", "j1", "Census scans"))
	m.AssertExpectations(t)
}

func TestPlunkMailer(t *testing.T) {
	var got plunkSendBody
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	m := NewPlunkMailer(srv.URL, "pk_test", "support@distal.dev")
	require.NoError(t, m.Send(context.Background(), "to@example.com", "Hi", "<p>Body</p>"))
	assert.Equal(t, "Bearer pk_test", auth)
	assert.Equal(t, "to@example.com", got.To)
	assert.Equal(t, "support@distal.dev", got.From)
}

func TestPlunkMailerSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	err := NewPlunkMailer(srv.URL, "bad", "").Send(context.Background(), "to@example.com", "Hi", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestBuildMessageKeepsHeadersIntact(t *testing.T) {
	env := welcomeEnvelope(Recipient{Name: "Bob\r\nBcc: victim@example.com", Email: "bob@example.com"}, "https://distal.test")
	raw := string(buildMessage("noreply@distal.test", env.To, env.Subject, env.Body))

	head, _, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	lines := strings.Split(head, "\r\n")
	require.Len(t, lines, 5)
	for _, line := range lines {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
		assert.NotContains(t, line, "\n")
		assert.NotContains(t, line, "\r")
	}
	assert.Equal(t, "Subject: Welcome to Distal, Bob Bcc: victim@example.com!", lines[2])
}
