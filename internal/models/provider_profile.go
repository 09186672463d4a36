package models

import "time"

const (
	VerificationUnverified = "unverified"
	VerificationPending    = "pending"
	VerificationVerified   = "verified"
)

type ProviderProfile struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	DisplayName        *string   `json:"display_name"`
	AvatarURL          *string   `json:"avatar_url"`
	Bio                *string   `json:"bio"`
	ProviderType       *string   `json:"provider_type"`
	Genres             *[]string `json:"genres"`
	Credits            *[]string `json:"credits"`
	MediaURLs          *[]string `json:"media_urls"`
	ExperienceYears    *int      `json:"experience_years"`
	HourlyRate         *float64  `json:"hourly_rate"`
	Rating             *float64  `json:"rating"`
	VerificationStatus string    `json:"verification_status"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ProviderWithScore struct {
	ProviderProfile
	MatchScore int `json:"match_score"`
}

type ProviderListResponse struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	AvatarURL       string   `json:"avatar_url"`
	ProviderType    string   `json:"provider_type"`
	Genres          []string `json:"genres"`
	ExperienceYears int      `json:"experience_years"`
	HourlyRate      float64  `json:"hourly_rate"`
	Rating          float64  `json:"rating"`
	Verified        bool     `json:"verified"`
	MatchScore      int      `json:"match_score,omitempty"`
}

type ProviderDetailResponse struct {
	ProviderListResponse
	Bio                string   `json:"bio"`
	Credits            []string `json:"credits"`
	MediaURLs          []string `json:"media_urls"`
	OnboardingComplete bool     `json:"onboarding_complete"`
}

// ScanProfile is the denormalized view of an account the abuse scanner
// consumes: profile completeness, booking volume, and account age.
type ScanProfile struct {
	UserID            string    `json:"user_id"`
	HasBio            bool      `json:"has_bio"`
	MediaCount        int       `json:"media_count"`
	CompletedBookings int       `json:"completed_bookings"`
	AccountCreatedAt  time.Time `json:"account_created_at"`
}
