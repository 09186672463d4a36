package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
	"github.com/aydin-k/StudioSplitBack/internal/services"
)

type onboardingService interface {
	CompleteProviderOnboarding(ctx context.Context, userID string, input repository.ProviderOnboardingInput) (*models.ProviderProfile, error)
	CompleteClientOnboarding(ctx context.Context, userID string, input repository.ClientOnboardingInput) (*models.ClientProfile, error)
}

type OnboardingHandler struct {
	service onboardingService
}

func NewOnboardingHandler(service *services.ProfileService) *OnboardingHandler {
	return &OnboardingHandler{service: service}
}

type providerOnboardingRequest struct {
	DisplayName     string   `json:"display_name"`
	Bio             string   `json:"bio"`
	ProviderType    string   `json:"provider_type"`
	Genres          []string `json:"genres"`
	Credits         []string `json:"credits"`
	ExperienceYears int      `json:"experience_years"`
	HourlyRate      float64  `json:"hourly_rate"`
}

type clientOnboardingRequest struct {
	DisplayName   string   `json:"display_name"`
	Genres        []string `json:"genres"`
	MaxHourlyRate *float64 `json:"max_hourly_rate"`
}

func (h *OnboardingHandler) CompleteProviderOnboarding(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleProvider {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req providerOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateProviderOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.service.CompleteProviderOnboarding(c.Context(), userID, repository.ProviderOnboardingInput{
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		ProviderType:    req.ProviderType,
		Genres:          req.Genres,
		Credits:         req.Credits,
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      req.HourlyRate,
	})
	if err != nil {
		return mapOnboardingError(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *OnboardingHandler) CompleteClientOnboarding(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req clientOnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateClientOnboardingRequest(req); validationErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.service.CompleteClientOnboarding(c.Context(), userID, repository.ClientOnboardingInput{
		DisplayName:   req.DisplayName,
		Genres:        req.Genres,
		MaxHourlyRate: req.MaxHourlyRate,
	})
	if err != nil {
		return mapOnboardingError(c, err)
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func mapOnboardingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete onboarding"})
	}
}
