package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/testutil"
)

const whsec = "whsec_test"

type fakeCheckout struct {
	err   error
	calls []CheckoutRequest
}

func (f *fakeCheckout) CreateSession(_ context.Context, req CheckoutRequest) (*Session, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &Session{ID: "cs_test_" + req.PaymentID[:8], URL: "https://checkout.example/" + req.PaymentID}, nil
}

type fixture struct {
	srv      *testutil.Server
	checkout *fakeCheckout
	client   *models.User
	token    string
	provider *models.User
	job      *models.Job
}

func newFixture(t *testing.T, checkout Checkout) *fixture {
	t.Helper()
	srv := testutil.NewServer()
	repos := srv.Store.Repositories()
	NewHandler(repos, checkout, whsec, srv.Notify, metrics.New(), zap.NewNop()).Register(srv.API, srv.Auth)

	client, token := srv.SeedUser(t, "client", models.RoleClient)
	provider, _ := srv.SeedUser(t, "provider", models.RoleProvider)
	job, err := repos.Jobs.Create(context.Background(), client.ID, models.JobInput{
		Title: "Scan archive", Description: "Ledger scans", Budget: decimal.RequireFromString("5000"),
	})
	require.NoError(t, err)
	prop, err := repos.Proposals.Create(context.Background(), &models.Proposal{
		JobID: job.ID, ProviderID: provider.ID, Price: decimal.NewFromInt(4500), Timeline: "3 weeks", Approach: "Overhead scanner",
	})
	require.NoError(t, err)
	_, err = repos.Proposals.Accept(context.Background(), job.ID, prop.ID, client.ID)
	require.NoError(t, err)
	job, err = repos.Jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, job.ProviderID)

	f := &fixture{srv: srv, client: client, token: token, provider: provider, job: job}
	if fc, ok := checkout.(*fakeCheckout); ok {
		f.checkout = fc
	}
	return f
}

func (f *fixture) create(t *testing.T, method string, amount string) *httptest.ResponseRecorder {
	return f.srv.Do(t, http.MethodPost, "/api/payments",
		fmt.Sprintf(`{"jobId":%q,"amount":%s,"paymentMethod":%q}`, f.job.ID, amount, method), f.token)
}

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func webhookPayload(eventType, sessionID string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"api_version":"2020-08-27","data":{"object":{"id":%q,"object":"checkout.session"}}}`,
		eventType, sessionID))
}

func (f *fixture) deliver(t *testing.T, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/stripe-webhook", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	f.srv.Echo.ServeHTTP(rec, req)
	return rec
}

func TestCreateExternalPaymentHasNoReference(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})

	rec := f.create(t, "external", "250.50")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CreatePaymentResponse
	testutil.DecodeJSON(t, rec, &resp)
	assert.Nil(t, resp.StripeSessionID)
	assert.Equal(t, models.PaymentPending, resp.Status)
	assert.Empty(t, f.checkout.calls)

	p, err := f.srv.Store.Repositories().Payments.Get(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Nil(t, p.ExternalRef)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("250.50")))

	require.Equal(t, []string{alerts.TaskPaymentReceived}, f.srv.Notify.Kinds())
	assert.Equal(t, f.provider.Email, f.srv.Notify.Sent[0].To.Email)
}

func TestCreateStripePaymentStoresSession(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})

	rec := f.create(t, "stripe", "99.99")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CreatePaymentResponse
	testutil.DecodeJSON(t, rec, &resp)
	require.NotNil(t, resp.StripeSessionID)
	require.NotNil(t, resp.CheckoutURL)

	require.Len(t, f.checkout.calls, 1)
	assert.Equal(t, "Scan archive", f.checkout.calls[0].JobTitle)

	p, err := f.srv.Store.Repositories().Payments.Get(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	require.NotNil(t, p.ExternalRef)
	assert.Equal(t, *resp.StripeSessionID, *p.ExternalRef)
}

func TestCreateStripeWithoutProcessorWritesNothing(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.create(t, "stripe", "10")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	list, err := f.srv.Store.Repositories().Payments.ListByJob(context.Background(), f.job.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCheckoutFailureMarksPaymentFailed(t *testing.T) {
	f := newFixture(t, &fakeCheckout{err: errors.New("card network down")})

	rec := f.create(t, "stripe", "10")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", testutil.ErrorMessage(t, rec))

	list, err := f.srv.Store.Repositories().Payments.ListByJob(context.Background(), f.job.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.PaymentFailed, list[0].Status)
	assert.Empty(t, f.srv.Notify.Kinds())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})

	assert.Equal(t, http.StatusBadRequest, f.create(t, "paypal", "10").Code)
	assert.Equal(t, http.StatusBadRequest, f.create(t, "external", "-1").Code)
	rec := f.create(t, "external", "10.005")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount must have at most two decimal places", testutil.ErrorMessage(t, rec))

	_, otherTok := f.srv.SeedUser(t, "other", models.RoleClient)
	rec = f.srv.Do(t, http.MethodPost, "/api/payments",
		fmt.Sprintf(`{"jobId":%q,"amount":5,"paymentMethod":"external"}`, f.job.ID), otherTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookCompletesPaymentIdempotently(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})
	var resp CreatePaymentResponse
	testutil.DecodeJSON(t, f.create(t, "stripe", "42"), &resp)

	payload := webhookPayload("checkout.session.completed", *resp.StripeSessionID)
	for i := 0; i < 2; i++ {
		rec := f.deliver(t, payload, sign(payload, whsec, time.Now()))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	}

	p, err := f.srv.Store.Repositories().Payments.Get(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})
	var resp CreatePaymentResponse
	testutil.DecodeJSON(t, f.create(t, "stripe", "42"), &resp)
	payload := webhookPayload("checkout.session.completed", *resp.StripeSessionID)

	cases := map[string]string{
		"missing":      "",
		"wrong secret": sign(payload, "whsec_other", time.Now()),
		"stale":        sign(payload, whsec, time.Now().Add(-time.Hour)),
	}
	for name, sig := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.deliver(t, payload, sig)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	p, err := f.srv.Store.Repositories().Payments.Get(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
}

func TestWebhookRejectsOversizedPayload(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})
	var resp CreatePaymentResponse
	testutil.DecodeJSON(t, f.create(t, "stripe", "42"), &resp)

	payload := webhookPayload("checkout.session.completed", *resp.StripeSessionID)
	payload = append(payload, bytes.Repeat([]byte(" "), maxWebhookBody)...)
	rec := f.deliver(t, payload, sign(payload, whsec, time.Now()))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Webhook payload too large", testutil.ErrorMessage(t, rec))

	p, err := f.srv.Store.Repositories().Payments.Get(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
}

func TestWebhookExpiredFailsOnlyPending(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})
	var resp CreatePaymentResponse
	testutil.DecodeJSON(t, f.create(t, "stripe", "42"), &resp)
	ref := *resp.StripeSessionID

	done := webhookPayload("checkout.session.completed", ref)
	require.Equal(t, http.StatusOK, f.deliver(t, done, sign(done, whsec, time.Now())).Code)
	expired := webhookPayload("checkout.session.expired", ref)
	require.Equal(t, http.StatusOK, f.deliver(t, expired, sign(expired, whsec, time.Now())).Code)

	p, err := f.srv.Store.Repositories().Payments.Get(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.Status)
}

func TestListForJobParticipantsOnly(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})
	require.Equal(t, http.StatusOK, f.create(t, "external", "1").Code)

	providerTok, err := f.srv.Signer.Issue(f.provider.ID)
	require.NoError(t, err)
	var list []models.Payment
	testutil.DecodeJSON(t, f.srv.Do(t, http.MethodGet, "/api/jobs/"+f.job.ID+"/payments", nil, providerTok), &list)
	assert.Len(t, list, 1)

	_, strangerTok := f.srv.SeedUser(t, "stranger", models.RoleProvider)
	rec := f.srv.Do(t, http.MethodGet, "/api/jobs/"+f.job.ID+"/payments", nil, strangerTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcilerFailsOnlyStaleOrphans(t *testing.T) {
	f := newFixture(t, &fakeCheckout{})
	repos := f.srv.Store.Repositories()
	ctx := context.Background()

	orphan := &models.Payment{ID: "00000000-0000-4000-8000-000000000001", JobID: f.job.ID, Amount: decimal.NewFromInt(5), Method: models.MethodStripe, Status: models.PaymentPending}
	fresh := &models.Payment{ID: "00000000-0000-4000-8000-000000000002", JobID: f.job.ID, Amount: decimal.NewFromInt(5), Method: models.MethodStripe, Status: models.PaymentPending}
	external := &models.Payment{ID: "00000000-0000-4000-8000-000000000003", JobID: f.job.ID, Amount: decimal.NewFromInt(5), Method: models.MethodExternal, Status: models.PaymentPending}
	for _, p := range []*models.Payment{orphan, fresh, external} {
		require.NoError(t, repos.Payments.Create(ctx, p))
	}
	f.srv.Store.Backdate(orphan.ID, time.Hour)
	f.srv.Store.Backdate(external.ID, time.Hour)

	r := NewReconciler(repos.Payments, 30*time.Minute, metrics.New(), zap.NewNop())
	ids, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.ID}, ids)

	ids, err = r.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	got, err := repos.Payments.Get(ctx, external.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.Status)
}

func TestToCents(t *testing.T) {
	assert.EqualValues(t, 4999, toCents(decimal.RequireFromString("49.99")))
	assert.EqualValues(t, 500000, toCents(decimal.RequireFromString("5000")))
	assert.EqualValues(t, 1, toCents(decimal.RequireFromString("0.005")))
}
