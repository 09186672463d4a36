package models

import "time"

type MentorshipProgram struct {
	ID            string    `json:"id"`
	ProviderID    string    `json:"provider_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	PriceUSD      float64   `json:"price_usd"`
	DurationWeeks int       `json:"duration_weeks"`
	SyllabusURL   *string   `json:"syllabus_url,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type MentorshipEnrollment struct {
	ID        string    `json:"id"`
	ProgramID string    `json:"program_id"`
	ClientID  string    `json:"client_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusCancelled = "cancelled"
)
