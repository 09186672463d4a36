package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
	"github.com/aydin-k/StudioSplitBack/internal/services"
)

type providerDiscoveryRepository interface {
	List(ctx context.Context, filter repository.ProviderListFilter) ([]models.ProviderProfile, int, error)
	GetByUserID(ctx context.Context, userID string) (*models.ProviderProfile, error)
}

type clientDiscoveryRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.ClientProfile, error)
}

type providerMatcher interface {
	FindMatches(ctx context.Context, client *models.ClientProfile, filter services.MatchFilter) ([]models.ProviderWithScore, error)
}

type reviewLister interface {
	ListForProvider(ctx context.Context, providerID string, limit, offset int) ([]models.Review, int, error)
}

type ProviderDiscoveryHandler struct {
	providerRepo providerDiscoveryRepository
	clientRepo   clientDiscoveryRepository
	matchService providerMatcher
	reviewRepo   reviewLister
}

func NewProviderDiscoveryHandler(
	providerRepo providerDiscoveryRepository,
	clientRepo clientDiscoveryRepository,
	matchService providerMatcher,
	reviewRepo reviewLister,
) *ProviderDiscoveryHandler {
	return &ProviderDiscoveryHandler{
		providerRepo: providerRepo,
		clientRepo:   clientRepo,
		matchService: matchService,
		reviewRepo:   reviewRepo,
	}
}

func (h *ProviderDiscoveryHandler) ListProviders(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	minRating, err := parseNonNegativeFloat(c.Query("min_rating"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "min_rating must be a valid non-negative number"})
	}
	maxRate, err := parseNonNegativeFloat(c.Query("max_rate"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_rate must be a valid non-negative number"})
	}
	experience, err := parseNonNegativeInt(c.Query("experience"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "experience must be a valid non-negative integer"})
	}

	providers, total, err := h.providerRepo.List(c.Context(), repository.ProviderListFilter{
		ProviderType: strings.TrimSpace(c.Query("type")),
		Genre:        strings.TrimSpace(c.Query("genre")),
		MinRating:    minRating,
		MaxRate:      maxRate,
		Experience:   experience,
		Offset:       (page - 1) * limit,
		Limit:        limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch providers"})
	}

	response := make([]models.ProviderListResponse, 0, len(providers))
	for _, provider := range providers {
		response = append(response, buildProviderListResponse(provider, 0))
	}

	return c.JSON(fiber.Map{
		"providers":  response,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ProviderDiscoveryHandler) GetRecommendedProviders(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	clientProfile, err := h.clientRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch client profile"})
	}

	matches, err := h.matchService.FindMatches(c.Context(), clientProfile, services.MatchFilter{
		ProviderType: strings.TrimSpace(c.Query("type")),
		Limit:        limit,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch recommended providers"})
	}

	response := make([]models.ProviderListResponse, 0, len(matches))
	for _, match := range matches {
		response = append(response, buildProviderListResponse(match.ProviderProfile, match.MatchScore))
	}

	return c.JSON(fiber.Map{"providers": response})
}

func (h *ProviderDiscoveryHandler) GetProviderDetail(c *fiber.Ctx) error {
	providerID := c.Params("id")
	if strings.TrimSpace(providerID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid provider id"})
	}

	provider, err := h.providerRepo.GetByUserID(c.Context(), providerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Provider not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch provider"})
	}

	reviews, totalReviews, err := h.reviewRepo.ListForProvider(c.Context(), providerID, 3, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch provider reviews"})
	}

	return c.JSON(fiber.Map{
		"provider":      buildProviderDetailResponse(*provider),
		"reviews":       reviews,
		"total_reviews": totalReviews,
	})
}

func (h *ProviderDiscoveryHandler) ListProviderReviews(c *fiber.Ctx) error {
	providerID := c.Params("id")
	if strings.TrimSpace(providerID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid provider id"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	reviews, total, err := h.reviewRepo.ListForProvider(c.Context(), providerID, limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch reviews"})
	}

	return c.JSON(fiber.Map{
		"reviews":    reviews,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func buildProviderListResponse(provider models.ProviderProfile, matchScore int) models.ProviderListResponse {
	response := models.ProviderListResponse{
		ID:              provider.UserID,
		DisplayName:     stringValue(provider.DisplayName),
		AvatarURL:       stringValue(provider.AvatarURL),
		ProviderType:    stringValue(provider.ProviderType),
		Genres:          stringSliceValue(provider.Genres),
		ExperienceYears: intValue(provider.ExperienceYears),
		HourlyRate:      floatValue(provider.HourlyRate),
		Rating:          floatValue(provider.Rating),
		Verified:        provider.VerificationStatus == models.VerificationVerified,
	}
	if matchScore > 0 {
		response.MatchScore = matchScore
	}
	return response
}

func buildProviderDetailResponse(provider models.ProviderProfile) models.ProviderDetailResponse {
	return models.ProviderDetailResponse{
		ProviderListResponse: buildProviderListResponse(provider, 0),
		Bio:                  stringValue(provider.Bio),
		Credits:              stringSliceValue(provider.Credits),
		MediaURLs:            stringSliceValue(provider.MediaURLs),
		OnboardingComplete:   provider.OnboardingComplete,
	}
}
