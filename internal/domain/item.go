package domain

import "time"

type ItemStatus string

const (
	ItemActive  ItemStatus = "active"
	ItemRetired ItemStatus = "retired"
)

// Item is a penny item on the public list. SKU is stored normalized.
type Item struct {
	ID          string     `json:"id"`
	SKU         string     `json:"sku"`
	Name        string     `json:"name"`
	Brand       string     `json:"brand,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Status      ItemStatus `json:"status"`
	ReportCount int        `json:"reportCount"`
	FirstSeenAt time.Time  `json:"firstSeenAt"`
	LastSeenAt  time.Time  `json:"lastSeenAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ItemFilter narrows the list query. State filters on states with approved reports.
type ItemFilter struct {
	State  string
	Limit  int
	Offset int
}

// ItemPatch holds optional admin edits.
type ItemPatch struct {
	Name     *string     `json:"name"`
	Brand    *string     `json:"brand"`
	ImageURL *string     `json:"imageUrl"`
	Status   *ItemStatus `json:"status"`
	Force    bool        `json:"force"`
}
