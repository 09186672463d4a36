package models

import "time"

type Review struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	AuthorID   string    `json:"author_id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment"`
	Visible    bool      `json:"visible"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewWithAuthor carries the author's account age alongside the review so
// the abuse scanner can spot perfect-rating streaks from freshly created
// accounts without a second query per review.
type ReviewWithAuthor struct {
	Review
	AuthorCreatedAt time.Time `json:"author_created_at"`
}
