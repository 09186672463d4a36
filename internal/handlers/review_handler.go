package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
)

type reviewWriter interface {
	Create(ctx context.Context, input repository.CreateReviewInput) (*models.Review, error)
	SetVisibility(ctx context.Context, reviewID string, visible bool) error
}

type completedBookingChecker interface {
	HasCompletedBooking(ctx context.Context, providerID string, clientUid string) (bool, error)
}

type ReviewHandler struct {
	reviewRepo  reviewWriter
	bookingRepo completedBookingChecker
}

func NewReviewHandler(reviewRepo reviewWriter, bookingRepo completedBookingChecker) *ReviewHandler {
	return &ReviewHandler{reviewRepo: reviewRepo, bookingRepo: bookingRepo}
}

type createReviewRequest struct {
	ProviderID string  `json:"provider_id"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment"`
}

// CreateReview accepts a rating from a client who completed at least one
// session with the provider.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.ProviderID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "provider_id is required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "rating must be between 1 and 5"})
	}
	if req.Comment != nil && strings.TrimSpace(*req.Comment) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "comment must not be empty"})
	}

	completed, err := h.bookingRepo.HasCompletedBooking(c.Context(), req.ProviderID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify booking history"})
	}
	if !completed {
		return c.Status(fiber.StatusForbidden).
			JSON(fiber.Map{"error": "Reviews require a completed session with this provider"})
	}

	review, err := h.reviewRepo.Create(c.Context(), repository.CreateReviewInput{
		ProviderID: req.ProviderID,
		AuthorID:   userID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create review"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"review": review})
}

// SetReviewVisibility lets admins hide reviews flagged as manipulated.
func (h *ReviewHandler) SetReviewVisibility(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req struct {
		Visible bool `json:"visible"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.reviewRepo.SetVisibility(c.Context(), c.Params("id"), req.Visible); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update review"})
	}
	return c.JSON(fiber.Map{"visible": req.Visible})
}
