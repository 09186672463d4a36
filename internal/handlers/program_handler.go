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

type programApplicationService interface {
	CreateProgram(ctx context.Context, providerID string, input repository.CreateMentorshipProgramInput) (*models.MentorshipProgram, error)
	GetProgram(ctx context.Context, programID string) (*models.MentorshipProgram, error)
	ListActivePrograms(ctx context.Context) ([]models.MentorshipProgram, error)
	ListProviderPrograms(ctx context.Context, providerID string) ([]models.MentorshipProgram, error)
	DeactivateProgram(ctx context.Context, providerID, programID string) error
	Enroll(ctx context.Context, clientID, programID string) (*models.MentorshipEnrollment, error)
	ListEnrollments(ctx context.Context, clientID string) ([]models.MentorshipEnrollment, error)
}

type ProgramHandler struct {
	service programApplicationService
}

func NewProgramHandler(service *services.ProgramService) *ProgramHandler {
	return &ProgramHandler{service: service}
}

type createProgramRequest struct {
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	PriceUSD      float64 `json:"price_usd"`
	DurationWeeks int     `json:"duration_weeks"`
	SyllabusURL   *string `json:"syllabus_url"`
}

func (h *ProgramHandler) CreateProgram(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleProvider {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createProgramRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	program, err := h.service.CreateProgram(c.Context(), userID, repository.CreateMentorshipProgramInput{
		Title:         req.Title,
		Description:   req.Description,
		PriceUSD:      req.PriceUSD,
		DurationWeeks: req.DurationWeeks,
		SyllabusURL:   req.SyllabusURL,
	})
	if err != nil {
		return mapProgramError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"program": program})
}

func (h *ProgramHandler) ListPrograms(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if role == models.RoleProvider && c.Query("mine") == "true" {
		programs, err := h.service.ListProviderPrograms(c.Context(), userID)
		if err != nil {
			return mapProgramError(c, err)
		}
		return c.JSON(fiber.Map{"programs": programs})
	}

	programs, err := h.service.ListActivePrograms(c.Context())
	if err != nil {
		return mapProgramError(c, err)
	}
	return c.JSON(fiber.Map{"programs": programs})
}

func (h *ProgramHandler) GetProgram(c *fiber.Ctx) error {
	program, err := h.service.GetProgram(c.Context(), c.Params("id"))
	if err != nil {
		return mapProgramError(c, err)
	}
	return c.JSON(fiber.Map{"program": program})
}

func (h *ProgramHandler) DeactivateProgram(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleProvider {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.DeactivateProgram(c.Context(), userID, c.Params("id")); err != nil {
		return mapProgramError(c, err)
	}
	return c.JSON(fiber.Map{"deactivated": true})
}

func (h *ProgramHandler) Enroll(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	enrollment, err := h.service.Enroll(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapProgramError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"enrollment": enrollment})
}

func (h *ProgramHandler) ListEnrollments(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	enrollments, err := h.service.ListEnrollments(c.Context(), userID)
	if err != nil {
		return mapProgramError(c, err)
	}
	return c.JSON(fiber.Map{"enrollments": enrollments})
}

func mapProgramError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrAccountFrozen):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is frozen"})
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already enrolled in this program"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Program is no longer active"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Program not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process program request"})
	}
}
