package models

import "github.com/shopspring/decimal"

// Stats is the admin dashboard snapshot.
type Stats struct {
	Users           int64           `json:"users"`
	Providers       int64           `json:"providers"`
	Datasets        int64           `json:"datasets"`
	Jobs            int64           `json:"jobs"`
	OpenJobs        int64           `json:"open_jobs"`
	Messages        int64           `json:"messages"`
	Payments        int64           `json:"payments"`
	PendingPayments int64           `json:"pending_payments"`
	CompletedVolume decimal.Decimal `json:"completed_volume"`
}
