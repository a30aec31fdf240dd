package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalWithdrawn ProposalStatus = "withdrawn"
)

// Proposal is a provider's offer to take on a job.
type Proposal struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id"`
	ProviderID   string          `json:"provider_id"`
	ProviderName string          `json:"provider_name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Timeline     string          `json:"timeline"`
	Approach     string          `json:"approach"`
	Status       ProposalStatus  `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
