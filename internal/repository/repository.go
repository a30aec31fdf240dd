package repository

import (
	"context"
	"time"

	"github.com/sudo-init-do/distal/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	ListProviders(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, email string, role models.Role) error
	// List returns every user, newest first.
	List(ctx context.Context) ([]models.User, error)
}

type DatasetRepository interface {
	List(ctx context.Context) ([]models.Dataset, error)
	Get(ctx context.Context, id string) (*models.Dataset, error)
	Create(ctx context.Context, ownerID string, in models.DatasetInput) (*models.Dataset, error)
	// Update and Delete match on id and owner; a miss is not_found_or_unauthorized.
	Update(ctx context.Context, id, ownerID string, in models.DatasetInput) (*models.Dataset, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type JobRepository interface {
	List(ctx context.Context) ([]models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	Create(ctx context.Context, clientID string, in models.JobInput) (*models.Job, error)
	// Update writes job's mutable fields and status, guarded by owner and the
	// status the caller observed. A status race is reported as conflict.
	Update(ctx context.Context, job *models.Job, observed models.JobStatus) (*models.Job, error)
	Delete(ctx context.Context, id, clientID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	Get(ctx context.Context, id string) (*models.Message, error)
	Conversation(ctx context.Context, a, b string) ([]models.Message, error)
	Contacts(ctx context.Context, viewer string) ([]models.Contact, error)
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, id string) (*models.Payment, error)
	SetExternalRef(ctx context.Context, id, ref string) error
	MarkFailed(ctx context.Context, id string) error
	// CompleteByRef flips the payment holding ref to completed; ok is false when none matches.
	CompleteByRef(ctx context.Context, ref string) (p *models.Payment, ok bool, err error)
	// FailByRef flips a still-pending payment holding ref to failed.
	FailByRef(ctx context.Context, ref string) (ok bool, err error)
	ListByJob(ctx context.Context, jobID string) ([]models.Payment, error)
	// FailStale marks processor payments that never got a session reference as failed.
	FailStale(ctx context.Context, createdBefore time.Time) ([]string, error)
}

type ProposalRepository interface {
	// Create stores a pending proposal and moves a job still in discussion to quoted.
	Create(ctx context.Context, p *models.Proposal) (*models.Proposal, error)
	Get(ctx context.Context, id string) (*models.Proposal, error)
	ListByJob(ctx context.Context, jobID, providerID string) ([]models.Proposal, error)
	Accept(ctx context.Context, jobID, proposalID, clientID string) (*models.Proposal, error)
	Withdraw(ctx context.Context, jobID, proposalID, providerID string) error
}

type DeliverableRepository interface {
	Create(ctx context.Context, d *models.Deliverable) (*models.Deliverable, error)
	Get(ctx context.Context, jobID, id string) (*models.Deliverable, error)
	ListByJob(ctx context.Context, jobID string) ([]models.Deliverable, error)
}

type StatsRepository interface {
	Snapshot(ctx context.Context) (*models.Stats, error)
}

// Repositories bundles every store the handlers need.
type Repositories struct {
	Users        UserRepository
	Datasets     DatasetRepository
	Jobs         JobRepository
	Messages     MessageRepository
	Payments     PaymentRepository
	Proposals    ProposalRepository
	Deliverables DeliverableRepository
	Stats        StatsRepository
}
