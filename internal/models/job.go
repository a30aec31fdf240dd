package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobDiscussion JobStatus = "discussion"
	JobQuoted     JobStatus = "quoted"
	JobAccepted   JobStatus = "accepted"
	JobInProgress JobStatus = "in_progress"
	JobReview     JobStatus = "review"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

// forward order of the working statuses; completed and cancelled sit outside it
var jobRank = map[JobStatus]int{
	JobDiscussion: 0,
	JobQuoted:     1,
	JobAccepted:   2,
	JobInProgress: 3,
	JobReview:     4,
}

// ParseJobStatus validates a raw status value.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobDiscussion, JobQuoted, JobAccepted, JobInProgress, JobReview, JobCompleted, JobCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobCancelled
}

// CanTransitionTo is the job lifecycle table.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	switch next {
	case JobCancelled:
		return true
	case JobCompleted:
		return s == JobReview
	}
	from, ok := jobRank[s]
	if !ok {
		return false
	}
	to, ok := jobRank[next]
	if !ok {
		return false
	}
	if s == JobReview && next == JobInProgress {
		return true
	}
	return to > from
}

type Job struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Budget         decimal.Decimal `json:"budget"`
	Location       string          `json:"location"`
	Status         JobStatus       `json:"status"`
	Requirements   string          `json:"requirements"`
	DeliveryFormat string          `json:"delivery_format"`
	Timeline       string          `json:"timeline"`
	ClientID       string          `json:"client_id"`
	ClientName     string          `json:"client_name,omitempty"`
	ProviderID     *string         `json:"provider_id"`
	ProviderName   string          `json:"provider_name,omitempty"`
	EscrowID       *string         `json:"escrow_id"`
	CompletionDate *time.Time      `json:"completion_date"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsParticipant reports whether userID is the client or the assigned provider.
func (j *Job) IsParticipant(userID string) bool {
	return j.ClientID == userID || (j.ProviderID != nil && *j.ProviderID == userID)
}

// JobInput is the mutable part of a job.
type JobInput struct {
	Title          string
	Description    string
	Budget         decimal.Decimal
	Location       string
	Requirements   string
	DeliveryFormat string
	Timeline       string
}
