package payments

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/middleware"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/repository"
)

type Handler struct {
	repos         *repository.Repositories
	checkout      Checkout
	webhookSecret string
	notifier      alerts.Notifier
	metrics       *metrics.Metrics
	log           *zap.Logger
}

// NewHandler builds the payment handler. checkout may be nil when no processor is configured.
func NewHandler(repos *repository.Repositories, checkout Checkout, webhookSecret string, notifier alerts.Notifier, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{
		repos:         repos,
		checkout:      checkout,
		webhookSecret: webhookSecret,
		notifier:      notifier,
		metrics:       m,
		log:           log.Named("payments"),
	}
}

func (h *Handler) Register(api *echo.Group, requireAuth echo.MiddlewareFunc) {
	api.POST("/payments", h.Create, requireAuth)
	api.POST("/payments/stripe-webhook", h.StripeWebhook)
	api.GET("/jobs/:id/payments", h.ListForJob, requireAuth)
}

type CreatePaymentRequest struct {
	JobID         string           `json:"jobId"`
	MilestoneID   *string          `json:"milestoneId"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"paymentMethod"`
}

type CreatePaymentResponse struct {
	PaymentID       string               `json:"paymentId"`
	StripeSessionID *string              `json:"stripeSessionId"`
	CheckoutURL     *string              `json:"checkoutUrl"`
	Status          models.PaymentStatus `json:"status"`
}

// POST /api/payments
func (h *Handler) Create(c echo.Context) error {
	req := new(CreatePaymentRequest)
	if err := middleware.BindAndValidate(c, req); err != nil {
		return err
	}
	if strings.TrimSpace(req.JobID) == "" {
		return apperr.Validation("jobId is required")
	}
	amount, err := models.Money("amount", req.Amount)
	if err != nil {
		return err
	}
	method := models.PaymentMethod(req.PaymentMethod)
	if method != models.MethodStripe && method != models.MethodExternal {
		return apperr.Validation("paymentMethod must be one of: stripe external")
	}
	if method == models.MethodStripe && h.checkout == nil {
		return apperr.Dependency(nil, "Payment processor is not configured")
	}

	ctx := c.Request().Context()
	job, err := h.repos.Jobs.Get(ctx, strings.TrimSpace(req.JobID))
	if err != nil {
		return err
	}
	if job.ClientID != middleware.UserID(c) {
		return apperr.NotFoundOrUnauthorized("Job")
	}

	p := &models.Payment{
		ID:          uuid.New().String(),
		JobID:       job.ID,
		MilestoneID: req.MilestoneID,
		Amount:      amount,
		Method:      method,
		Status:      models.PaymentPending,
	}
	if err := h.repos.Payments.Create(ctx, p); err != nil {
		return err
	}
	h.metrics.PaymentsCreated.WithLabelValues(string(method)).Inc()

	resp := CreatePaymentResponse{PaymentID: p.ID, Status: p.Status}
	if method == models.MethodStripe {
		sess, err := h.openSession(ctx, p, job)
		if err != nil {
			return err
		}
		resp.StripeSessionID = &sess.ID
		resp.CheckoutURL = &sess.URL
	}

	h.notifyProvider(ctx, p, job)
	return c.JSON(http.StatusOK, resp)
}

// openSession creates the checkout and stores its reference. On failure the
// pending row is flipped to failed; reconciliation catches it if that fails too.
func (h *Handler) openSession(ctx context.Context, p *models.Payment, job *models.Job) (*Session, error) {
	sess, err := h.checkout.CreateSession(ctx, CheckoutRequest{
		PaymentID: p.ID,
		JobID:     job.ID,
		JobTitle:  job.Title,
		Amount:    p.Amount,
	})
	if err == nil {
		err = h.repos.Payments.SetExternalRef(ctx, p.ID, sess.ID)
	}
	if err != nil {
		h.log.Error("checkout failed", zap.String("payment_id", p.ID), zap.Error(err))
		if ferr := h.repos.Payments.MarkFailed(context.WithoutCancel(ctx), p.ID); ferr != nil {
			h.log.Error("compensation failed, left for reconciliation", zap.String("payment_id", p.ID), zap.Error(ferr))
		}
		return nil, apperr.Dependency(err, "Failed to create payment")
	}
	return sess, nil
}

func (h *Handler) notifyProvider(ctx context.Context, p *models.Payment, job *models.Job) {
	if job.ProviderID == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	provider, err := h.repos.Users.GetByID(ctx, *job.ProviderID)
	if err != nil {
		h.log.Warn("payment notification skipped", zap.String("payment_id", p.ID), zap.Error(err))
		return
	}
	to := alerts.Recipient{ID: provider.ID, Name: provider.Name, Email: provider.Email}
	if err := h.notifier.PaymentReceived(ctx, to, p.ID, job.ID, p.Amount, job.Title); err != nil {
		h.metrics.EmailFailures.WithLabelValues(alerts.TaskPaymentReceived).Inc()
		h.log.Error("payment email failed", zap.String("payment_id", p.ID), zap.Error(err))
	}
}

// GET /api/jobs/:id/payments
func (h *Handler) ListForJob(c echo.Context) error {
	ctx := c.Request().Context()
	job, err := h.repos.Jobs.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if !job.IsParticipant(middleware.UserID(c)) {
		return apperr.NotFoundOrUnauthorized("Job")
	}
	list, err := h.repos.Payments.ListByJob(ctx, job.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}
