package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail    = "email:welcome"
	TaskMessageNew      = "email:message_new"
	TaskPaymentReceived = "email:payment_received"
)

// QueueEmails is the asynq queue email tasks go to.
const QueueEmails = "emails"

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Message new payload (sent to recipient on new message with a job context)
type MessageNewPayload struct {
	MessageID   string        `json:"message_id"`
	SenderID    string        `json:"sender_id"`
	RecipientID string        `json:"recipient_id"`
	JobID       string        `json:"job_id"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Payment received payload (sent to the job's provider)
type PaymentReceivedPayload struct {
	PaymentID   string        `json:"payment_id"`
	JobID       string        `json:"job_id"`
	RecipientID string        `json:"recipient_id"`
	Amount      string        `json:"amount"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Recipient is who an email goes to.
type Recipient struct {
	ID    string
	Name  string
	Email string
}
