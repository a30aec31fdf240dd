package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// CheckoutRequest describes one hosted checkout for a job payment.
type CheckoutRequest struct {
	PaymentID string
	JobID     string
	JobTitle  string
	Amount    decimal.Decimal
}

// Session is the processor's handle for an in-progress checkout.
type Session struct {
	ID  string
	URL string
}

// Checkout opens hosted checkout sessions.
type Checkout interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error)
}

// StripeCheckout opens Stripe Checkout sessions in payment mode.
type StripeCheckout struct {
	api         *client.API
	frontendURL string
	currency    string
}

func NewStripeCheckout(secretKey, frontendURL string) *StripeCheckout {
	return &StripeCheckout{
		api:         client.New(secretKey, nil),
		frontendURL: frontendURL,
		currency:    string(stripe.CurrencyUSD),
	}
}

// toCents converts a two-decimal amount into the smallest currency unit.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *StripeCheckout) CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Payment for Job: " + req.JobTitle),
				},
				UnitAmount: stripe.Int64(toCents(req.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(fmt.Sprintf("%s/jobs/%s/payment-success", s.frontendURL, req.JobID)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/jobs/%s/payment-cancel", s.frontendURL, req.JobID)),
		ClientReferenceID: stripe.String(req.PaymentID),
	}
	params.Context = ctx
	params.SetIdempotencyKey("checkout-" + req.PaymentID)
	params.AddMetadata("payment_id", req.PaymentID)
	params.AddMetadata("job_id", req.JobID)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}
