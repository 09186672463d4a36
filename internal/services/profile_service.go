package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
)

var providerTypes = map[string]bool{
	"studio":       true,
	"engineer":     true,
	"producer":     true,
	"artist":       true,
	"videographer": true,
}

// ProfileService handles onboarding and profile management for both sides of
// the marketplace, plus the provider verification workflow.
type ProfileService struct {
	providerRepo *repository.ProviderProfileRepository
	clientRepo   *repository.ClientProfileRepository
}

func NewProfileService(
	providerRepo *repository.ProviderProfileRepository,
	clientRepo *repository.ClientProfileRepository,
) *ProfileService {
	return &ProfileService{providerRepo: providerRepo, clientRepo: clientRepo}
}

func (s *ProfileService) CompleteProviderOnboarding(
	ctx context.Context,
	userID string,
	input repository.ProviderOnboardingInput,
) (*models.ProviderProfile, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.ProviderType = strings.ToLower(strings.TrimSpace(input.ProviderType))
	if input.DisplayName == "" || !providerTypes[input.ProviderType] {
		return nil, ErrInvalidInput
	}
	if input.HourlyRate <= 0 || input.ExperienceYears < 0 {
		return nil, ErrInvalidInput
	}
	return s.providerRepo.UpdateOnboarding(ctx, userID, input)
}

func (s *ProfileService) CompleteClientOnboarding(
	ctx context.Context,
	userID string,
	input repository.ClientOnboardingInput,
) (*models.ClientProfile, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		return nil, ErrInvalidInput
	}
	if input.MaxHourlyRate != nil && *input.MaxHourlyRate <= 0 {
		return nil, ErrInvalidInput
	}
	return s.clientRepo.UpdateOnboarding(ctx, userID, input)
}

func (s *ProfileService) GetProviderProfile(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	return s.providerRepo.GetByUserID(ctx, userID)
}

func (s *ProfileService) GetClientProfile(ctx context.Context, userID string) (*models.ClientProfile, error) {
	return s.clientRepo.GetByUserID(ctx, userID)
}

func (s *ProfileService) UpdateProviderProfile(
	ctx context.Context,
	userID string,
	input repository.UpdateProviderProfileInput,
) (*models.ProviderProfile, error) {
	if input.HourlyRate != nil && *input.HourlyRate <= 0 {
		return nil, ErrInvalidInput
	}
	if input.ProviderType != nil && !providerTypes[strings.ToLower(*input.ProviderType)] {
		return nil, ErrInvalidInput
	}
	return s.providerRepo.UpdatePartial(ctx, userID, input)
}

func (s *ProfileService) UpdateClientProfile(
	ctx context.Context,
	userID string,
	input repository.UpdateClientProfileInput,
) (*models.ClientProfile, error) {
	if input.MaxHourlyRate != nil && *input.MaxHourlyRate <= 0 {
		return nil, ErrInvalidInput
	}
	return s.clientRepo.UpdatePartial(ctx, userID, input)
}

// RequestVerification moves an unverified provider into the review queue.
func (s *ProfileService) RequestVerification(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	profile, err := s.providerRepo.SetVerificationStatus(
		ctx, userID, models.VerificationUnverified, models.VerificationPending,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return profile, nil
}

// DecideVerification resolves a pending verification request. Approval marks
// the provider verified; rejection returns them to unverified.
func (s *ProfileService) DecideVerification(
	ctx context.Context,
	userID string,
	approve bool,
) (*models.ProviderProfile, error) {
	nextStatus := models.VerificationVerified
	if !approve {
		nextStatus = models.VerificationUnverified
	}
	profile, err := s.providerRepo.SetVerificationStatus(
		ctx, userID, models.VerificationPending, nextStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return profile, nil
}
