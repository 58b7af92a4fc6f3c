package domain

import "time"

// Tag is a free-form label attachable to any number of leads.
// Name is the exact, case-sensitive identity (≤50 chars, unique).
// Tags are created on demand during import and never auto-deleted.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadTag is the join row between leads and tags.
// Deleting a lead removes its join rows but never the tags themselves.
type LeadTag struct {
	LeadID    string    `json:"lead_id"`
	TagID     string    `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}
