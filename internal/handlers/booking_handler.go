package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
	"github.com/aydin-k/StudioSplitBack/internal/services"
)

type bookingApplicationService interface {
	CreateSplitBooking(ctx context.Context, actorUid string, input services.CreateSplitBookingInput) (*models.SplitBooking, error)
	ListBookings(ctx context.Context, actorID string, role string, filter repository.SplitBookingListFilter) ([]models.SplitBooking, error)
	GetBooking(ctx context.Context, actorID string, role string, bookingID string) (*models.SplitBooking, error)
	UpdateStatus(ctx context.Context, actorID string, role string, bookingID string, requestedStatus string) (*models.SplitBooking, error)
	StartCheckout(ctx context.Context, actorUid string, bookingID string) (*services.CheckoutSession, error)
	PaymentStatusFor(ctx context.Context, actorID string, role string, bookingID string, clientUid string) (*services.ClientPaymentView, error)
	RespondTalentInvite(ctx context.Context, actorUid string, bookingID string, accept bool) (*models.SplitBooking, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	ProviderID         string   `json:"provider_id"`
	PartnerUid         string   `json:"partner_uid"`
	ScheduledAt        string   `json:"scheduled_at"`
	DurationMinutes    int      `json:"duration_minutes"`
	ClientAShare       *float64 `json:"client_a_share"`
	ClientBShare       *float64 `json:"client_b_share"`
	RequestedTalentUid *string  `json:"requested_talent_uid"`
	Notes              *string  `json:"notes"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

type talentResponseRequest struct {
	Accept bool `json:"accept"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}
	if req.DurationMinutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_minutes must be greater than 0"})
	}
	if req.Notes != nil && strings.TrimSpace(*req.Notes) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "notes must not be empty"})
	}

	booking, err := h.service.CreateSplitBooking(c.Context(), userID, services.CreateSplitBookingInput{
		ProviderID:         req.ProviderID,
		PartnerUid:         req.PartnerUid,
		ScheduledAt:        scheduledAt,
		DurationMinutes:    req.DurationMinutes,
		ClientAShare:       req.ClientAShare,
		ClientBShare:       req.ClientBShare,
		RequestedTalentUid: req.RequestedTalentUid,
		Notes:              req.Notes,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || (role != models.RoleClient && role != models.RoleProvider) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	bookings, err := h.service.ListBookings(c.Context(), userID, role, repository.SplitBookingListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := h.service.GetBooking(c.Context(), userID, role, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || (role != models.RoleClient && role != models.RoleProvider) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req updateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	booking, err := h.service.UpdateStatus(c.Context(), userID, role, bookingID, req.Status)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) StartCheckout(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok || role != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	session, err := h.service.StartCheckout(c.Context(), userID, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"checkout": session})
}

func (h *BookingHandler) GetPaymentStatus(c *fiber.Ctx) error {
	role, ok := actorRole(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	clientUid := strings.TrimSpace(c.Query("client_uid"))
	if clientUid == "" {
		clientUid = userID
	}

	view, err := h.service.PaymentStatusFor(c.Context(), userID, role, bookingID, clientUid)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"payment": view})
}

func (h *BookingHandler) RespondTalentInvite(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := parseBookingID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req talentResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	booking, err := h.service.RespondTalentInvite(c.Context(), userID, bookingID, req.Accept)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func parseBookingID(c *fiber.Ctx) (string, error) {
	bookingID := c.Params("id")
	if _, err := uuid.Parse(bookingID); err != nil {
		return "", err
	}
	return bookingID, nil
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrAccountFrozen):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is frozen"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Requested time conflicts with another session"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrPaymentsUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Payments are not configured"})
	case errors.Is(err, services.ErrProviderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Provider not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
