package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Processor delivers queued email tasks through a Mailer.
type Processor struct {
	mailer Mailer
	log    *zap.Logger
}

func NewProcessor(m Mailer, log *zap.Logger) *Processor {
	return &Processor{mailer: m, log: log.Named("alerts")}
}

// Register attaches every email task handler to mux.
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskWelcomeEmail, p.handleWelcomeEmail)
	mux.HandleFunc(TaskMessageNew, p.handleMessageNew)
	mux.HandleFunc(TaskPaymentReceived, p.handlePaymentReceived)
}

func (p *Processor) deliver(ctx context.Context, kind string, env EmailEnvelope, fields ...zap.Field) error {
	if err := p.mailer.Send(ctx, env.To, env.Subject, env.Body); err != nil {
		p.log.Error(kind+" send failed", append(fields, zap.Error(err))...)
		return err
	}
	p.log.Info(kind+" sent", append(fields, zap.String("to", env.To))...)
	return nil
}

func (p *Processor) handleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	var pl WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &pl); err != nil {
		return fmt.Errorf("decode welcome payload: %v: %w", err, asynq.SkipRetry)
	}
	return p.deliver(ctx, "welcome email", pl.Envelope, zap.String("user_id", pl.UserID))
}

func (p *Processor) handleMessageNew(ctx context.Context, t *asynq.Task) error {
	var pl MessageNewPayload
	if err := json.Unmarshal(t.Payload(), &pl); err != nil {
		return fmt.Errorf("decode message payload: %v: %w", err, asynq.SkipRetry)
	}
	return p.deliver(ctx, "message email", pl.Envelope,
		zap.String("message_id", pl.MessageID), zap.String("job_id", pl.JobID))
}

func (p *Processor) handlePaymentReceived(ctx context.Context, t *asynq.Task) error {
	var pl PaymentReceivedPayload
	if err := json.Unmarshal(t.Payload(), &pl); err != nil {
		return fmt.Errorf("decode payment payload: %v: %w", err, asynq.SkipRetry)
	}
	return p.deliver(ctx, "payment email", pl.Envelope,
		zap.String("payment_id", pl.PaymentID), zap.String("job_id", pl.JobID))
}
