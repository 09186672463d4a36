package models

import "time"

const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

const (
	TalentStatusInvited  = "invited"
	TalentStatusAccepted = "accepted"
	TalentStatusDeclined = "declined"
)

// SplitBooking is a single studio session booked jointly by two clients who
// each pay an independent share of the total cost.
type SplitBooking struct {
	ID                   string    `json:"id"`
	ProviderID           string    `json:"provider_id"`
	ClientAUid           string    `json:"client_a_uid"`
	ClientBUid           string    `json:"client_b_uid"`
	ScheduledAt          time.Time `json:"scheduled_at"`
	DurationMinutes      int       `json:"duration_minutes"`
	TotalCost            float64   `json:"total_cost"`
	ClientAShare         float64   `json:"client_a_share"`
	ClientBShare         float64   `json:"client_b_share"`
	ClientAPaymentStatus string    `json:"client_a_payment_status"`
	ClientBPaymentStatus string    `json:"client_b_payment_status"`
	Status               string    `json:"status"`
	StripeSessionA       *string   `json:"stripe_session_a,omitempty"`
	StripeSessionB       *string   `json:"stripe_session_b,omitempty"`
	RequestedTalentUid   *string   `json:"requested_talent_uid,omitempty"`
	TalentStatus         *string   `json:"talent_status,omitempty"`
	Notes                *string   `json:"notes"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
