package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier fires best-effort emails. Callers log failures and carry on.
type Notifier interface {
	Welcome(ctx context.Context, to Recipient) error
	NewMessage(ctx context.Context, to Recipient, messageID, senderID, jobID, jobTitle string) error
	PaymentReceived(ctx context.Context, to Recipient, paymentID, jobID string, amount decimal.Decimal, jobTitle string) error
}

// Queue schedules emails as asynq tasks for the worker.
type Queue struct {
	client *asynq.Client
	appURL string
}

func NewQueue(client *asynq.Client, appURL string) *Queue {
	return &Queue{client: client, appURL: appURL}
}

func (q *Queue) enqueue(ctx context.Context, taskType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", taskType, err)
	}
	task := asynq.NewTask(taskType, b, asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	if _, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueEmails)); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// Welcome schedules a welcome email to a new user
func (q *Queue) Welcome(ctx context.Context, to Recipient) error {
	return q.enqueue(ctx, TaskWelcomeEmail, WelcomeEmailPayload{
		UserID:   to.ID,
		Envelope: welcomeEnvelope(to, q.appURL),
		SentAt:   time.Now(),
	})
}

// NewMessage notifies the receiver of a message sent in a job context
func (q *Queue) NewMessage(ctx context.Context, to Recipient, messageID, senderID, jobID, jobTitle string) error {
	return q.enqueue(ctx, TaskMessageNew, MessageNewPayload{
		MessageID:   messageID,
		SenderID:    senderID,
		RecipientID: to.ID,
		JobID:       jobID,
		Envelope:    newMessageEnvelope(to, jobTitle),
		SentAt:      time.Now(),
	})
}

// PaymentReceived notifies the provider that checkout was opened for their job
func (q *Queue) PaymentReceived(ctx context.Context, to Recipient, paymentID, jobID string, amount decimal.Decimal, jobTitle string) error {
	return q.enqueue(ctx, TaskPaymentReceived, PaymentReceivedPayload{
		PaymentID:   paymentID,
		JobID:       jobID,
		RecipientID: to.ID,
		Amount:      amount.StringFixed(2),
		Envelope:    paymentReceivedEnvelope(to, amount, jobTitle),
		SentAt:      time.Now(),
	})
}

// Direct sends emails inline; used when no Redis is configured.
type Direct struct {
	mailer Mailer
	appURL string
	log    *zap.Logger
}

func NewDirect(m Mailer, appURL string, log *zap.Logger) *Direct {
	return &Direct{mailer: m, appURL: appURL, log: log}
}

func (d *Direct) send(ctx context.Context, env EmailEnvelope) error {
	if err := d.mailer.Send(ctx, env.To, env.Subject, env.Body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	d.log.Debug("email sent", zap.String("to", env.To), zap.String("subject", env.Subject))
	return nil
}

func (d *Direct) Welcome(ctx context.Context, to Recipient) error {
	return d.send(ctx, welcomeEnvelope(to, d.appURL))
}

func (d *Direct) NewMessage(ctx context.Context, to Recipient, _, _, _, jobTitle string) error {
	return d.send(ctx, newMessageEnvelope(to, jobTitle))
}

func (d *Direct) PaymentReceived(ctx context.Context, to Recipient, _, _ string, amount decimal.Decimal, jobTitle string) error {
	return d.send(ctx, paymentReceivedEnvelope(to, amount, jobTitle))
}
