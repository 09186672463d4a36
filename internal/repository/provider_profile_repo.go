package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

const providerProfileColumns = `id, user_id, display_name, avatar_url, bio, provider_type, genres,
	credits, media_urls, experience_years, hourly_rate, rating, verification_status,
	onboarding_complete, created_at, updated_at`

type ProviderProfileRepository struct {
	db DBTX
}

func NewProviderProfileRepository(db DBTX) *ProviderProfileRepository {
	return &ProviderProfileRepository{db: db}
}

func (r *ProviderProfileRepository) CreateEmpty(ctx context.Context, userID string) error {
	query := `INSERT INTO provider_profiles (id, user_id) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, uuid.New().String(), userID)
	return err
}

func (r *ProviderProfileRepository) scanProfile(row interface{ Scan(dest ...any) error }) (*models.ProviderProfile, error) {
	var profile models.ProviderProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.ProviderType,
		&profile.Genres,
		&profile.Credits,
		&profile.MediaURLs,
		&profile.ExperienceYears,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.VerificationStatus,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProviderProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	query := `SELECT ` + providerProfileColumns + ` FROM provider_profiles WHERE user_id = $1`
	return r.scanProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *ProviderProfileRepository) ListAll(ctx context.Context) ([]models.ProviderProfile, error) {
	query := `
		SELECT ` + providerProfileColumns + `
		FROM provider_profiles
		WHERE onboarding_complete = TRUE
		ORDER BY rating DESC NULLS LAST, created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.ProviderProfile, 0)
	for rows.Next() {
		profile, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

type ProviderListFilter struct {
	ProviderType string
	Genre        string
	MinRating    float64
	MaxRate      float64
	Experience   int
	Offset       int
	Limit        int
}

// List returns onboarded providers matching the discovery filters plus the
// total match count for pagination.
func (r *ProviderProfileRepository) List(ctx context.Context, filter ProviderListFilter) ([]models.ProviderProfile, int, error) {
	where := `
		WHERE onboarding_complete = TRUE
			AND ($1 = '' OR provider_type = $1)
			AND ($2 = '' OR $2 = ANY(genres))
			AND ($3 = 0 OR rating >= $3)
			AND ($4 = 0 OR hourly_rate <= $4)
			AND ($5 = 0 OR experience_years >= $5)
	`
	args := []any{filter.ProviderType, filter.Genre, filter.MinRating, filter.MaxRate, filter.Experience}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM provider_profiles`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + providerProfileColumns + `
		FROM provider_profiles` + where + `
		ORDER BY rating DESC NULLS LAST, created_at ASC
		OFFSET $6 LIMIT $7
	`
	rows, err := r.db.Query(ctx, query, append(args, filter.Offset, filter.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]models.ProviderProfile, 0)
	for rows.Next() {
		profile, err := r.scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

type ProviderOnboardingInput struct {
	DisplayName     string
	Bio             string
	ProviderType    string
	Genres          []string
	Credits         []string
	ExperienceYears int
	HourlyRate      float64
}

func (r *ProviderProfileRepository) UpdateOnboarding(ctx context.Context, userID string, req ProviderOnboardingInput) (*models.ProviderProfile, error) {
	query := `
		UPDATE provider_profiles
		SET display_name = $1,
			bio = $2,
			provider_type = $3,
			genres = $4,
			credits = $5,
			experience_years = $6,
			hourly_rate = $7,
			onboarding_complete = TRUE,
			updated_at = NOW()
		WHERE user_id = $8
		RETURNING ` + providerProfileColumns + `
	`
	return r.scanProfile(r.db.QueryRow(ctx, query,
		req.DisplayName,
		req.Bio,
		req.ProviderType,
		req.Genres,
		req.Credits,
		req.ExperienceYears,
		req.HourlyRate,
		userID,
	))
}

type UpdateProviderProfileInput struct {
	DisplayName     *string
	AvatarURL       *string
	Bio             *string
	ProviderType    *string
	Genres          *[]string
	Credits         *[]string
	MediaURLs       *[]string
	ExperienceYears *int
	HourlyRate      *float64
}

func (r *ProviderProfileRepository) UpdatePartial(ctx context.Context, userID string, req UpdateProviderProfileInput) (*models.ProviderProfile, error) {
	query := `
		UPDATE provider_profiles
		SET display_name = COALESCE($1, display_name),
			avatar_url = COALESCE($2, avatar_url),
			bio = COALESCE($3, bio),
			provider_type = COALESCE($4, provider_type),
			genres = COALESCE($5, genres),
			credits = COALESCE($6, credits),
			media_urls = COALESCE($7, media_urls),
			experience_years = COALESCE($8, experience_years),
			hourly_rate = COALESCE($9, hourly_rate),
			updated_at = NOW()
		WHERE user_id = $10
		RETURNING ` + providerProfileColumns + `
	`
	return r.scanProfile(r.db.QueryRow(ctx, query,
		req.DisplayName,
		req.AvatarURL,
		req.Bio,
		req.ProviderType,
		req.Genres,
		req.Credits,
		req.MediaURLs,
		req.ExperienceYears,
		req.HourlyRate,
		userID,
	))
}

// SetVerificationStatus moves the profile through the verification workflow.
// The guard on the current status keeps request/decide transitions ordered.
func (r *ProviderProfileRepository) SetVerificationStatus(
	ctx context.Context,
	userID string,
	currentStatus string,
	nextStatus string,
) (*models.ProviderProfile, error) {
	query := `
		UPDATE provider_profiles
		SET verification_status = $3, updated_at = NOW()
		WHERE user_id = $1 AND verification_status = $2
		RETURNING ` + providerProfileColumns + `
	`
	return r.scanProfile(r.db.QueryRow(ctx, query, userID, currentStatus, nextStatus))
}

// ScanProfile assembles the denormalized account view the abuse scanner
// consumes. Works for any user; a missing provider profile reads as an empty
// one.
func (r *ProviderProfileRepository) ScanProfile(ctx context.Context, userID string) (*models.ScanProfile, error) {
	query := `
		SELECT u.id,
			u.created_at,
			COALESCE(p.bio, '') <> '',
			COALESCE(array_length(p.media_urls, 1), 0),
			(SELECT COUNT(*) FROM split_bookings b WHERE b.provider_id = u.id AND b.status = 'completed')
		FROM users u
		LEFT JOIN provider_profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`
	var profile models.ScanProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.AccountCreatedAt,
		&profile.HasBio,
		&profile.MediaCount,
		&profile.CompletedBookings,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
