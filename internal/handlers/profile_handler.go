package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
	"github.com/aydin-k/StudioSplitBack/internal/services"
)

const (
	maxAvatarSizeBytes = 5 * 1024 * 1024
	maxMediaSizeBytes  = 25 * 1024 * 1024
	maxPortfolioItems  = 12
)

type profileApplicationService interface {
	GetProviderProfile(ctx context.Context, userID string) (*models.ProviderProfile, error)
	GetClientProfile(ctx context.Context, userID string) (*models.ClientProfile, error)
	UpdateProviderProfile(ctx context.Context, userID string, input repository.UpdateProviderProfileInput) (*models.ProviderProfile, error)
	UpdateClientProfile(ctx context.Context, userID string, input repository.UpdateClientProfileInput) (*models.ClientProfile, error)
	RequestVerification(ctx context.Context, userID string) (*models.ProviderProfile, error)
	DecideVerification(ctx context.Context, userID string, approve bool) (*models.ProviderProfile, error)
}

type ProfileHandler struct {
	profileService profileApplicationService
	storageService services.StorageService
}

func NewProfileHandler(
	profileService *services.ProfileService,
	storageService services.StorageService,
) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		storageService: storageService,
	}
}

type updateProviderProfileRequest struct {
	DisplayName     *string   `json:"display_name"`
	Bio             *string   `json:"bio"`
	ProviderType    *string   `json:"provider_type"`
	Genres          *[]string `json:"genres"`
	Credits         *[]string `json:"credits"`
	ExperienceYears *int      `json:"experience_years"`
	HourlyRate      *float64  `json:"hourly_rate"`
}

type updateClientProfileRequest struct {
	DisplayName   *string   `json:"display_name"`
	Genres        *[]string `json:"genres"`
	MaxHourlyRate *float64  `json:"max_hourly_rate"`
}

func (h *ProfileHandler) GetProviderProfile(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleProvider {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profileService.GetProviderProfile(c.Context(), userID)
	if err != nil {
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) GetClientProfile(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profileService.GetClientProfile(c.Context(), userID)
	if err != nil {
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) UpdateProviderProfile(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleProvider {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProviderProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateProviderProfileUpdateRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.profileService.UpdateProviderProfile(c.Context(), userID, repository.UpdateProviderProfileInput{
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		ProviderType:    req.ProviderType,
		Genres:          req.Genres,
		Credits:         req.Credits,
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      req.HourlyRate,
	})
	if err != nil {
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) UpdateClientProfile(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateClientProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateClientProfileUpdateRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.profileService.UpdateClientProfile(c.Context(), userID, repository.UpdateClientProfileInput{
		DisplayName:   req.DisplayName,
		Genres:        req.Genres,
		MaxHourlyRate: req.MaxHourlyRate,
	})
	if err != nil {
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) RequestVerification(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleProvider {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profileService.RequestVerification(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStateTransition) {
			return c.Status(fiber.StatusUnprocessableEntity).
				JSON(fiber.Map{"error": "Verification already requested or granted"})
		}
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{"profile": profile})
}

// DecideVerification lets an admin approve or reject a pending verification
// request. Only profiles currently pending can be decided.
func (h *ProfileHandler) DecideVerification(c *fiber.Ctx) error {
	providerID := strings.TrimSpace(c.Params("id"))
	if providerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "provider id is required"})
	}

	var req struct {
		Approve *bool `json:"approve"`
	}
	if err := c.BodyParser(&req); err != nil || req.Approve == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "approve is required"})
	}

	profile, err := h.profileService.DecideVerification(c.Context(), providerID, *req.Approve)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStateTransition) {
			return c.Status(fiber.StatusUnprocessableEntity).
				JSON(fiber.Map{"error": "No pending verification request for this provider"})
		}
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{"profile": profile})
}

// UploadAvatar stores the caller's avatar and swaps the URL on their profile,
// deleting the previous object best effort.
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || (role != models.RoleClient && role != models.RoleProvider) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is empty"})
	}
	if fileHeader.Size > maxAvatarSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file exceeds 5MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar must be a jpg, jpeg, png, or webp file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open avatar file"})
	}
	defer file.Close()

	filename := fmt.Sprintf("%s-%d%s", userID, time.Now().UnixNano(), ext)
	avatarURL, err := h.storageService.UploadFile(c.Context(), file, filename, role+"s/avatars")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	if role == models.RoleProvider {
		current, err := h.profileService.GetProviderProfile(c.Context(), userID)
		if err != nil {
			return mapProfileError(c, err)
		}
		if current.AvatarURL != nil && *current.AvatarURL != "" && *current.AvatarURL != avatarURL {
			_ = h.storageService.DeleteFile(c.Context(), *current.AvatarURL)
		}
		profile, err := h.profileService.UpdateProviderProfile(c.Context(), userID, repository.UpdateProviderProfileInput{
			AvatarURL: &avatarURL,
		})
		if err != nil {
			return mapProfileError(c, err)
		}
		return c.JSON(fiber.Map{"avatar_url": avatarURL, "profile": profile})
	}

	current, err := h.profileService.GetClientProfile(c.Context(), userID)
	if err != nil {
		return mapProfileError(c, err)
	}
	if current.AvatarURL != nil && *current.AvatarURL != "" && *current.AvatarURL != avatarURL {
		_ = h.storageService.DeleteFile(c.Context(), *current.AvatarURL)
	}
	profile, err := h.profileService.UpdateClientProfile(c.Context(), userID, repository.UpdateClientProfileInput{
		AvatarURL: &avatarURL,
	})
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"avatar_url": avatarURL, "profile": profile})
}

// UploadPortfolioMedia appends an audio or video sample to a provider's
// portfolio, capped at maxPortfolioItems entries.
func (h *ProfileHandler) UploadPortfolioMedia(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleProvider {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fileHeader, err := c.FormFile("media")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "media file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "media file is empty"})
	}
	if fileHeader.Size > maxMediaSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "media file exceeds 25MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".mp3", ".wav", ".m4a", ".mp4", ".mov":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "media must be an mp3, wav, m4a, mp4, or mov file"})
	}

	current, err := h.profileService.GetProviderProfile(c.Context(), userID)
	if err != nil {
		return mapProfileError(c, err)
	}
	existing := stringSliceValue(current.MediaURLs)
	if len(existing) >= maxPortfolioItems {
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"error": fmt.Sprintf("portfolio is limited to %d items", maxPortfolioItems)})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open media file"})
	}
	defer file.Close()

	filename := fmt.Sprintf("%s-%d%s", userID, time.Now().UnixNano(), ext)
	mediaURL, err := h.storageService.UploadFile(c.Context(), file, filename, "providers/portfolio")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload media"})
	}

	updated := append(existing, mediaURL)
	profile, err := h.profileService.UpdateProviderProfile(c.Context(), userID, repository.UpdateProviderProfileInput{
		MediaURLs: &updated,
	})
	if err != nil {
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{"media_url": mediaURL, "profile": profile})
}

// DeletePortfolioMedia removes one portfolio entry by URL.
func (h *ProfileHandler) DeletePortfolioMedia(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleProvider {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req struct {
		MediaURL string `json:"media_url"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.MediaURL) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "media_url is required"})
	}

	current, err := h.profileService.GetProviderProfile(c.Context(), userID)
	if err != nil {
		return mapProfileError(c, err)
	}

	existing := stringSliceValue(current.MediaURLs)
	remaining := make([]string, 0, len(existing))
	found := false
	for _, url := range existing {
		if url == req.MediaURL {
			found = true
			continue
		}
		remaining = append(remaining, url)
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Media not found in portfolio"})
	}

	_ = h.storageService.DeleteFile(c.Context(), req.MediaURL)

	profile, err := h.profileService.UpdateProviderProfile(c.Context(), userID, repository.UpdateProviderProfileInput{
		MediaURLs: &remaining,
	})
	if err != nil {
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{"profile": profile})
}

func mapProfileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process profile request"})
	}
}
