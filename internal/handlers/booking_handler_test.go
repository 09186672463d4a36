package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
	"github.com/aydin-k/StudioSplitBack/internal/services"
)

type stubBookingService struct {
	booking     *models.SplitBooking
	bookings    []models.SplitBooking
	session     *services.CheckoutSession
	view        *services.ClientPaymentView
	err         error
	lastInput   services.CreateSplitBookingInput
	lastStatus  string
	lastActor   string
	lastBooking string
}

func (s *stubBookingService) CreateSplitBooking(ctx context.Context, actorUid string, input services.CreateSplitBookingInput) (*models.SplitBooking, error) {
	s.lastActor = actorUid
	s.lastInput = input
	return s.booking, s.err
}

func (s *stubBookingService) ListBookings(ctx context.Context, actorID string, role string, filter repository.SplitBookingListFilter) ([]models.SplitBooking, error) {
	return s.bookings, s.err
}

func (s *stubBookingService) GetBooking(ctx context.Context, actorID string, role string, bookingID string) (*models.SplitBooking, error) {
	s.lastBooking = bookingID
	return s.booking, s.err
}

func (s *stubBookingService) UpdateStatus(ctx context.Context, actorID string, role string, bookingID string, requestedStatus string) (*models.SplitBooking, error) {
	s.lastStatus = requestedStatus
	return s.booking, s.err
}

func (s *stubBookingService) StartCheckout(ctx context.Context, actorUid string, bookingID string) (*services.CheckoutSession, error) {
	s.lastActor = actorUid
	s.lastBooking = bookingID
	return s.session, s.err
}

func (s *stubBookingService) PaymentStatusFor(ctx context.Context, actorID string, role string, bookingID string, clientUid string) (*services.ClientPaymentView, error) {
	return s.view, s.err
}

func (s *stubBookingService) RespondTalentInvite(ctx context.Context, actorUid string, bookingID string, accept bool) (*models.SplitBooking, error) {
	return s.booking, s.err
}

func newBookingTestApp(service bookingApplicationService, userID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	handler := &BookingHandler{service: service}
	app.Post("/bookings", handler.CreateBooking)
	app.Get("/bookings", handler.ListBookings)
	app.Get("/bookings/:id", handler.GetBooking)
	app.Patch("/bookings/:id/status", handler.UpdateStatus)
	app.Post("/bookings/:id/checkout", handler.StartCheckout)
	app.Get("/bookings/:id/payment-status", handler.GetPaymentStatus)
	return app
}

const testBookingID = "6b1cb712-6e08-4efc-a27c-13e186d9f00a"

func jsonRequest(method, target string, body any) *http.Request {
	encoded, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateBookingRequiresClientRole(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, "provider-1", models.RoleProvider)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/bookings", fiber.Map{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCreateBookingValidatesTimestamp(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, "client-1", models.RoleClient)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/bookings", fiber.Map{
		"provider_id":      "provider-1",
		"partner_uid":      "client-2",
		"scheduled_at":     "tomorrow at noon",
		"duration_minutes": 120,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	service := &stubBookingService{
		booking: &models.SplitBooking{ID: testBookingID, Status: models.BookingStatusPending},
	}
	app := newBookingTestApp(service, "client-1", models.RoleClient)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/bookings", fiber.Map{
		"provider_id":      "provider-1",
		"partner_uid":      "client-2",
		"scheduled_at":     time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"duration_minutes": 120,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActor != "client-1" {
		t.Fatalf("expected actor client-1, got %s", service.lastActor)
	}
	if service.lastInput.PartnerUid != "client-2" || service.lastInput.DurationMinutes != 120 {
		t.Fatalf("unexpected input forwarded: %+v", service.lastInput)
	}
}

func TestGetBookingRejectsMalformedID(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, "client-1", models.RoleClient)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/bookings/not-a-uuid", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateStatusMapsConflictError(t *testing.T) {
	service := &stubBookingService{err: services.ErrInvalidStateTransition}
	app := newBookingTestApp(service, "provider-1", models.RoleProvider)

	resp, err := app.Test(jsonRequest(http.MethodPatch, "/bookings/"+testBookingID+"/status", fiber.Map{
		"status": "complete",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastStatus != "complete" {
		t.Fatalf("expected status forwarded, got %q", service.lastStatus)
	}
}

func TestStartCheckoutReturnsSession(t *testing.T) {
	service := &stubBookingService{
		session: &services.CheckoutSession{ID: "cs_123", URL: "https://checkout.stripe.com/cs_123"},
	}
	app := newBookingTestApp(service, "client-1", models.RoleClient)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/bookings/"+testBookingID+"/checkout", fiber.Map{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Checkout services.CheckoutSession `json:"checkout"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Checkout.ID != "cs_123" {
		t.Fatalf("expected session cs_123, got %s", body.Checkout.ID)
	}
}

func TestStartCheckoutMapsFrozenAccount(t *testing.T) {
	service := &stubBookingService{err: services.ErrAccountFrozen}
	app := newBookingTestApp(service, "client-1", models.RoleClient)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/bookings/"+testBookingID+"/checkout", fiber.Map{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
