package payments

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/apperr"
)

const (
	eventCheckoutCompleted = "checkout.session.completed"
	eventCheckoutExpired   = "checkout.session.expired"

	maxWebhookBody = 64 << 10
)

// verifyEvent checks the Stripe-Signature header against the raw payload.
func verifyEvent(payload []byte, header, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

// POST /api/payments/stripe-webhook
// Completion is a flat assignment, so duplicate deliveries are harmless.
func (h *Handler) StripeWebhook(c echo.Context) error {
	if h.webhookSecret == "" {
		return apperr.Dependency(nil, "Payment processor is not configured")
	}
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Webhook payload too large")
		}
		return apperr.Validation("Invalid request body")
	}

	event, err := verifyEvent(payload, c.Request().Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeSignature, "Webhook Error: invalid signature")
	}
	eventType := string(event.Type)
	h.metrics.WebhookEvents.WithLabelValues(eventType).Inc()

	switch eventType {
	case eventCheckoutCompleted, eventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			return apperr.Validation("Webhook Error: malformed checkout session")
		}
		ctx := c.Request().Context()
		if eventType == eventCheckoutCompleted {
			p, ok, err := h.repos.Payments.CompleteByRef(ctx, sess.ID)
			if err != nil {
				return err
			}
			if ok {
				h.log.Info("payment completed", zap.String("payment_id", p.ID), zap.String("event_id", event.ID))
			} else {
				h.log.Warn("completion for unknown checkout session", zap.String("session_id", sess.ID))
			}
		} else {
			ok, err := h.repos.Payments.FailByRef(ctx, sess.ID)
			if err != nil {
				return err
			}
			if ok {
				h.log.Info("checkout expired", zap.String("session_id", sess.ID))
			}
		}
	default:
		h.log.Debug("ignoring webhook event", zap.String("type", eventType))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
