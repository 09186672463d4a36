package models

import "time"

type ClientProfile struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	DisplayName        *string   `json:"display_name"`
	AvatarURL          *string   `json:"avatar_url"`
	Genres             *[]string `json:"genres"`
	MaxHourlyRate      *float64  `json:"max_hourly_rate"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
