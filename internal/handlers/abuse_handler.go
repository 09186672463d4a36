package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/services"
)

type abuseScanner interface {
	ScanUser(ctx context.Context, userID string, triggerType string) (*services.ScanResult, error)
}

type abuseReviewStore interface {
	ListPending(ctx context.Context, limit, offset int) ([]models.AbuseReview, int, error)
	GetByID(ctx context.Context, id string) (*models.AbuseReview, error)
	Resolve(ctx context.Context, id string, reviewerID string, resolution string) (*models.AbuseReview, error)
}

type accountAdminStore interface {
	Unfreeze(ctx context.Context, userID string) error
	FreezeIfActive(ctx context.Context, userID string, reason string) (bool, error)
}

var allowedResolutions = map[string]struct{}{
	"dismissed":      {},
	"warning_issued": {},
	"account_frozen": {},
}

// AbuseHandler is the admin surface over the scanner and its review queue.
type AbuseHandler struct {
	scanner  abuseScanner
	reviews  abuseReviewStore
	accounts accountAdminStore
}

func NewAbuseHandler(scanner abuseScanner, reviews abuseReviewStore, accounts accountAdminStore) *AbuseHandler {
	return &AbuseHandler{scanner: scanner, reviews: reviews, accounts: accounts}
}

func (h *AbuseHandler) ScanUser(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("id"))

	result, err := h.scanner.ScanUser(c.Context(), userID, "manual_admin")
	if err != nil {
		if errors.Is(err, services.ErrMissingUserID) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User id is required"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Scan failed"})
	}

	return c.JSON(fiber.Map{"result": result})
}

func (h *AbuseHandler) ListPendingReviews(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	reviews, total, err := h.reviews.ListPending(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch reviews"})
	}

	return c.JSON(fiber.Map{
		"reviews":    reviews,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *AbuseHandler) GetReview(c *fiber.Ctx) error {
	review, err := h.reviews.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Review not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch review"})
	}
	return c.JSON(fiber.Map{"review": review})
}

type resolveReviewRequest struct {
	Resolution string `json:"resolution"`
	Unfreeze   bool   `json:"unfreeze"`
}

// ResolveReview closes a pending review. "dismissed" with unfreeze restores a
// frozen account; "account_frozen" applies a freeze that the scanner's
// automatic path may not have taken.
func (h *AbuseHandler) ResolveReview(c *fiber.Ctx) error {
	reviewerID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req resolveReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if _, allowed := allowedResolutions[req.Resolution]; !allowed {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "resolution must be one of: dismissed, warning_issued, account_frozen"})
	}

	review, err := h.reviews.Resolve(c.Context(), c.Params("id"), reviewerID, req.Resolution)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Review not found or already resolved"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve review"})
	}

	if req.Resolution == "account_frozen" {
		if _, err := h.accounts.FreezeIfActive(c.Context(), review.UserID, "admin review "+review.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to freeze account"})
		}
	}
	if req.Unfreeze && req.Resolution == "dismissed" {
		if err := h.accounts.Unfreeze(c.Context(), review.UserID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to unfreeze account"})
		}
	}

	return c.JSON(fiber.Map{"review": review})
}
