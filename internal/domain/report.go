package domain

import "time"

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportRejected ReportStatus = "rejected"
)

// Report is a community-submitted penny find awaiting moderation.
type Report struct {
	ID          string       `json:"id"`
	SKU         string       `json:"sku"`
	ItemName    string       `json:"itemName"`
	Brand       string       `json:"brand,omitempty"`
	StoreNumber string       `json:"storeNumber,omitempty"`
	State       string       `json:"state"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Status      ReportStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	ReviewedAt  *time.Time   `json:"reviewedAt,omitempty"`
}
