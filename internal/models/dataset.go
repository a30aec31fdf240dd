package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices are rendered as JSON numbers so 49.99 reads back as 49.99.
	decimal.MarshalJSONWithoutQuotes = true
}

type Dataset struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Format      string          `json:"format"`
	Size        string          `json:"size"`
	PreviewURL  string          `json:"preview_url"`
	OwnerID     string          `json:"owner_id"`
	OwnerName   string          `json:"owner_name,omitempty"`
	OwnerEmail  string          `json:"owner_email,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DatasetInput is the mutable part of a dataset.
type DatasetInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Format      string
	Size        string
	PreviewURL  string
}
