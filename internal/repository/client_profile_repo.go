package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

const clientProfileColumns = `id, user_id, display_name, avatar_url, genres, max_hourly_rate,
	onboarding_complete, created_at, updated_at`

type ClientProfileRepository struct {
	db DBTX
}

func NewClientProfileRepository(db DBTX) *ClientProfileRepository {
	return &ClientProfileRepository{db: db}
}

func (r *ClientProfileRepository) CreateEmpty(ctx context.Context, userID string) error {
	query := `INSERT INTO client_profiles (id, user_id) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, uuid.New().String(), userID)
	return err
}

func (r *ClientProfileRepository) scanProfile(row interface{ Scan(dest ...any) error }) (*models.ClientProfile, error) {
	var profile models.ClientProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.Genres,
		&profile.MaxHourlyRate,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ClientProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.ClientProfile, error) {
	query := `SELECT ` + clientProfileColumns + ` FROM client_profiles WHERE user_id = $1`
	return r.scanProfile(r.db.QueryRow(ctx, query, userID))
}

type ClientOnboardingInput struct {
	DisplayName   string
	Genres        []string
	MaxHourlyRate *float64
}

func (r *ClientProfileRepository) UpdateOnboarding(ctx context.Context, userID string, req ClientOnboardingInput) (*models.ClientProfile, error) {
	query := `
		UPDATE client_profiles
		SET display_name = $1,
			genres = $2,
			max_hourly_rate = $3,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $4
		RETURNING ` + clientProfileColumns + `
	`
	return r.scanProfile(r.db.QueryRow(ctx, query,
		req.DisplayName,
		req.Genres,
		req.MaxHourlyRate,
		userID,
	))
}

type UpdateClientProfileInput struct {
	DisplayName   *string
	AvatarURL     *string
	Genres        *[]string
	MaxHourlyRate *float64
}

func (r *ClientProfileRepository) UpdatePartial(ctx context.Context, userID string, req UpdateClientProfileInput) (*models.ClientProfile, error) {
	query := `
		UPDATE client_profiles
		SET display_name = COALESCE($1, display_name),
			avatar_url = COALESCE($2, avatar_url),
			genres = COALESCE($3, genres),
			max_hourly_rate = COALESCE($4, max_hourly_rate),
			updated_at = NOW()
		WHERE user_id = $5
		RETURNING ` + clientProfileColumns + `
	`
	return r.scanProfile(r.db.QueryRow(ctx, query,
		req.DisplayName,
		req.AvatarURL,
		req.Genres,
		req.MaxHourlyRate,
		userID,
	))
}
