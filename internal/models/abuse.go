package models

import "time"

const (
	FlagSameClientAbuse   = "same_client_abuse"
	FlagRefundFarming     = "refund_farming"
	FlagVelocityAbuse     = "velocity_abuse"
	FlagSuspiciousReviews = "suspicious_reviews"
	FlagFakeAccount       = "fake_account_pattern"
)

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// AbuseFlag is one piece of typed, severity-tagged evidence produced by a
// scan. Metadata keeps the raw counts that triggered the flag for audit.
type AbuseFlag struct {
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

const AbuseReviewStatusPending = "pending_review"

type AbuseReview struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Flags       []AbuseFlag `json:"flags"`
	TriggerType string      `json:"trigger_type"`
	Status      string      `json:"status"`
	ReviewerID  *string     `json:"reviewer_id"`
	Resolution  *string     `json:"resolution"`
	CreatedAt   time.Time   `json:"created_at"`
}
