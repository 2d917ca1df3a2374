package model

import "time"

// RecipientSummary is a pre-aggregated row of the recipient lookup table.
type RecipientSummary struct {
	RecipientID           string    `json:"recipient_id"`
	DisplayName           string    `json:"display_name"`
	CommitteeType         string    `json:"committee_type"`
	TotalContributions    int64     `json:"total_contributions"`
	TotalAmount           float64   `json:"total_amount"`
	RecentContributions   int64     `json:"recent_contributions"`
	RecentAmount          float64   `json:"recent_amount"`
	FirstContributionDate string    `json:"first_contribution_date"`
	LastContributionDate  string    `json:"last_contribution_date"`
	ContributorCount      int64     `json:"contributor_count"`
	UpdatedAt             time.Time `json:"updated_at"`
}
