package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrProviderNotFound       = errors.New("provider not found")
	ErrAccountFrozen          = errors.New("account is frozen")
	ErrPaymentsUnavailable    = errors.New("payments are not configured")
)

type providerProfileReader interface {
	GetByUserID(ctx context.Context, userID string) (*models.ProviderProfile, error)
}

type userReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type notificationSender interface {
	Send(ctx context.Context, userID string, notifType string, payload map[string]any)
}

// PaymentProvider is the hosted-checkout collaborator. The service only
// depends on this contract; Stripe specifics live behind it.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error)
}

type CheckoutSessionInput struct {
	BookingID   string
	ClientUID   string
	AmountCents int64
	Currency    string
	Description string
	URLs        CheckoutURLs
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type BookingService struct {
	db          *pgxpool.Pool
	bookingRepo *repository.SplitBookingRepository
	userRepo    userReader
	profileRepo providerProfileReader
	payments    PaymentProvider
	notifier    notificationSender
	baseURL     string
}

func NewBookingService(
	db *pgxpool.Pool,
	bookingRepo *repository.SplitBookingRepository,
	userRepo userReader,
	profileRepo providerProfileReader,
	payments PaymentProvider,
	notifier notificationSender,
	baseURL string,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		payments:    payments,
		notifier:    notifier,
		baseURL:     baseURL,
	}
}

type CreateSplitBookingInput struct {
	ProviderID         string
	PartnerUid         string
	ScheduledAt        time.Time
	DurationMinutes    int
	ClientAShare       *float64
	ClientBShare       *float64
	RequestedTalentUid *string
	Notes              *string
}

// CreateSplitBooking opens a pending split booking between the caller
// (client A) and a partner (client B). The total cost comes from the
// provider's hourly rate; shares default to an equal split unless the caller
// supplies a custom breakdown that sums to the total.
func (s *BookingService) CreateSplitBooking(
	ctx context.Context,
	actorUid string,
	input CreateSplitBookingInput,
) (*models.SplitBooking, error) {
	if input.ProviderID == "" || input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if input.ScheduledAt.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}
	partnerUid := strings.TrimSpace(input.PartnerUid)
	if partnerUid == "" || partnerUid == actorUid {
		return nil, ErrInvalidInput
	}
	if actorUid == input.ProviderID || partnerUid == input.ProviderID {
		return nil, ErrInvalidInput
	}

	actor, err := s.userRepo.GetByID(ctx, actorUid)
	if err != nil {
		return nil, err
	}
	if actor.Frozen {
		return nil, ErrAccountFrozen
	}

	partner, err := s.userRepo.GetByID(ctx, partnerUid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	if partner.Role != models.RoleClient || partner.Frozen {
		return nil, ErrInvalidInput
	}

	provider, err := s.userRepo.GetByID(ctx, input.ProviderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	if provider.Role != models.RoleProvider {
		return nil, ErrInvalidInput
	}
	if provider.Frozen {
		return nil, ErrAccountFrozen
	}

	profile, err := s.profileRepo.GetByUserID(ctx, input.ProviderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	if !profile.OnboardingComplete || profile.HourlyRate == nil || *profile.HourlyRate <= 0 {
		return nil, ErrInvalidInput
	}

	totalCost := roundToCent(*profile.HourlyRate * float64(input.DurationMinutes) / 60)
	shareA, shareB, err := resolveShares(totalCost, input.ClientAShare, input.ClientBShare)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewSplitBookingRepository(tx)

	// Serialize bookings per provider so the conflict check cannot race.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", input.ProviderID); err != nil {
		return nil, err
	}

	hasConflict, err := txBookingRepo.HasConflict(
		ctx,
		input.ProviderID,
		input.ScheduledAt.UTC(),
		input.DurationMinutes,
	)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	booking, err := txBookingRepo.Create(ctx, repository.CreateSplitBookingInput{
		ProviderID:         input.ProviderID,
		ClientAUid:         actorUid,
		ClientBUid:         partnerUid,
		ScheduledAt:        input.ScheduledAt.UTC(),
		DurationMinutes:    input.DurationMinutes,
		TotalCost:          totalCost,
		ClientAShare:       shareA,
		ClientBShare:       shareB,
		RequestedTalentUid: input.RequestedTalentUid,
		Notes:              input.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		payload := map[string]any{"booking_id": booking.ID, "scheduled_at": booking.ScheduledAt}
		s.notifier.Send(ctx, partnerUid, "split_booking_invited", payload)
		s.notifier.Send(ctx, input.ProviderID, "split_booking_requested", payload)
		if input.RequestedTalentUid != nil {
			s.notifier.Send(ctx, *input.RequestedTalentUid, "talent_invited", payload)
		}
	}

	return booking, nil
}

func (s *BookingService) GetBooking(
	ctx context.Context,
	actorID string,
	role string,
	bookingID string,
) (*models.SplitBooking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canAccessBooking(role, actorID, booking) {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) ListBookings(
	ctx context.Context,
	actorID string,
	role string,
	filter repository.SplitBookingListFilter,
) ([]models.SplitBooking, error) {
	return s.bookingRepo.List(ctx, repository.SplitBookingListFilter{
		ActorID:   actorID,
		Role:      role,
		Status:    filter.Status,
		Timeframe: filter.Timeframe,
	})
}

// UpdateStatus drives the booking lifecycle. Providers confirm, start,
// complete, and cancel; clients confirm (counter-party acceptance) and
// cancel. Cancelling refunds any share already paid.
func (s *BookingService) UpdateStatus(
	ctx context.Context,
	actorID string,
	role string,
	bookingID string,
	requestedStatus string,
) (*models.SplitBooking, error) {
	nextStatus, err := normalizeRequestedStatus(requestedStatus)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewSplitBookingRepository(tx)

	booking, err := txBookingRepo.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canAccessBooking(role, actorID, booking) {
		return nil, ErrForbidden
	}
	if err := validateStatusTransition(role, actorID, booking, nextStatus); err != nil {
		return nil, err
	}

	if nextStatus == models.BookingStatusCancelled {
		for _, slot := range []string{"a", "b"} {
			if _, err := txBookingRepo.UpdateClientPaymentStatusIfCurrent(
				ctx, bookingID, slot, models.PaymentStatusPaid, models.PaymentStatusRefunded,
			); err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
		}
	}

	updated, err := txBookingRepo.UpdateStatusIfCurrent(ctx, bookingID, booking.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		payload := map[string]any{"booking_id": updated.ID, "status": updated.Status}
		for _, uid := range bookingParties(updated) {
			if uid != actorID {
				s.notifier.Send(ctx, uid, "booking_status_changed", payload)
			}
		}
	}

	return updated, nil
}

// StartCheckout creates a hosted checkout session for the caller's unpaid
// share and records the session id on their slot.
func (s *BookingService) StartCheckout(
	ctx context.Context,
	actorUid string,
	bookingID string,
) (*CheckoutSession, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewSplitBookingRepository(tx)
	booking, err := txBookingRepo.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	slot, err := clientSlot(booking, actorUid)
	if err != nil {
		return nil, ErrForbidden
	}
	if !ClientNeedsPayment(booking, actorUid) {
		return nil, ErrInvalidStateTransition
	}
	if s.payments == nil {
		return nil, ErrPaymentsUnavailable
	}

	breakdown := CalculateSplitPayments(booking)
	amountCents := breakdown.ClientAShareCents
	if slot == "b" {
		amountCents = breakdown.ClientBShareCents
	}

	session, err := s.payments.CreateCheckoutSession(ctx, CheckoutSessionInput{
		BookingID:   booking.ID,
		ClientUID:   actorUid,
		AmountCents: amountCents,
		Currency:    "usd",
		Description: fmt.Sprintf("Studio session share (%d min)", booking.DurationMinutes),
		URLs:        PaymentURLs(booking.ID, s.baseURL),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := txBookingRepo.SetClientCheckoutSession(ctx, booking.ID, slot, session.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return session, nil
}

// HandleCheckoutCompleted marks the share behind a finished checkout session
// as paid. Webhook deliveries retry, so an already-paid share is treated as
// success.
func (s *BookingService) HandleCheckoutCompleted(ctx context.Context, checkoutSessionID string) error {
	booking, slot, err := s.bookingRepo.FindByCheckoutSession(ctx, checkoutSessionID)
	if err != nil {
		return err
	}

	updated, err := s.bookingRepo.UpdateClientPaymentStatusIfCurrent(
		ctx, booking.ID, slot, models.PaymentStatusPending, models.PaymentStatusPaid,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	if s.notifier != nil && IsSplitBookingFullyPaid(updated) {
		payload := map[string]any{"booking_id": updated.ID}
		for _, uid := range bookingParties(updated) {
			s.notifier.Send(ctx, uid, "booking_fully_paid", payload)
		}
	}
	return nil
}

// PaymentStatusFor returns one participant's payment view. Callers may look
// up their own share; the provider and admins may look up either.
func (s *BookingService) PaymentStatusFor(
	ctx context.Context,
	actorID string,
	role string,
	bookingID string,
	clientUid string,
) (*ClientPaymentView, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && actorID != booking.ProviderID && actorID != clientUid {
		return nil, ErrForbidden
	}
	view := ClientPaymentStatus(booking, clientUid)
	if view == nil {
		return nil, ErrInvalidInput
	}
	return view, nil
}

// RespondTalentInvite lets the invited talent accept or decline their spot on
// the session. Talent participation never affects the payment split.
func (s *BookingService) RespondTalentInvite(
	ctx context.Context,
	actorUid string,
	bookingID string,
	accept bool,
) (*models.SplitBooking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RequestedTalentUid == nil || *booking.RequestedTalentUid != actorUid {
		return nil, ErrForbidden
	}

	nextStatus := models.TalentStatusAccepted
	if !accept {
		nextStatus = models.TalentStatusDeclined
	}
	updated, err := s.bookingRepo.UpdateTalentStatusIfCurrent(
		ctx, bookingID, models.TalentStatusInvited, nextStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if s.notifier != nil {
		payload := map[string]any{"booking_id": updated.ID, "talent_status": nextStatus}
		s.notifier.Send(ctx, updated.ProviderID, "talent_responded", payload)
	}
	return updated, nil
}

func canAccessBooking(role string, actorID string, booking *models.SplitBooking) bool {
	switch role {
	case models.RoleClient:
		return booking.ClientAUid == actorID || booking.ClientBUid == actorID
	case models.RoleProvider:
		return booking.ProviderID == actorID
	case models.RoleAdmin:
		return true
	default:
		return false
	}
}

func bookingParties(booking *models.SplitBooking) []string {
	return []string{booking.ClientAUid, booking.ClientBUid, booking.ProviderID}
}

func clientSlot(booking *models.SplitBooking, uid string) (string, error) {
	switch uid {
	case booking.ClientAUid:
		return "a", nil
	case booking.ClientBUid:
		return "b", nil
	default:
		return "", fmt.Errorf("uid %q is not a payer on booking %s", uid, booking.ID)
	}
}

func normalizeRequestedStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm", "confirmed":
		return models.BookingStatusConfirmed, nil
	case "start", "in_progress":
		return models.BookingStatusInProgress, nil
	case "complete", "completed":
		return models.BookingStatusCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.BookingStatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateStatusTransition(
	role string,
	actorID string,
	booking *models.SplitBooking,
	nextStatus string,
) error {
	terminal := booking.Status == models.BookingStatusCompleted ||
		booking.Status == models.BookingStatusCancelled

	switch role {
	case models.RoleClient:
		switch nextStatus {
		case models.BookingStatusConfirmed:
			if booking.Status != models.BookingStatusPending {
				return ErrInvalidStateTransition
			}
			return nil
		case models.BookingStatusCancelled:
			if terminal {
				return ErrInvalidStateTransition
			}
			return nil
		default:
			return ErrForbidden
		}
	case models.RoleProvider:
		switch nextStatus {
		case models.BookingStatusConfirmed:
			if booking.Status != models.BookingStatusPending {
				return ErrInvalidStateTransition
			}
		case models.BookingStatusInProgress:
			if booking.Status != models.BookingStatusConfirmed {
				return ErrInvalidStateTransition
			}
		case models.BookingStatusCompleted:
			if booking.Status != models.BookingStatusConfirmed &&
				booking.Status != models.BookingStatusInProgress {
				return ErrInvalidStateTransition
			}
			sessionEnd := booking.ScheduledAt.UTC().
				Add(time.Duration(booking.DurationMinutes) * time.Minute)
			if sessionEnd.After(time.Now().UTC()) {
				return ErrInvalidStateTransition
			}
		case models.BookingStatusCancelled:
			if terminal {
				return ErrInvalidStateTransition
			}
		default:
			return ErrInvalidStatus
		}
		return nil
	default:
		return ErrForbidden
	}
}

func resolveShares(totalCost float64, shareA, shareB *float64) (float64, float64, error) {
	if shareA == nil && shareB == nil {
		half := roundToCent(totalCost / 2)
		return half, roundToCent(totalCost - half), nil
	}
	if shareA == nil || shareB == nil {
		return 0, 0, ErrInvalidInput
	}
	if *shareA < 0 || *shareB < 0 {
		return 0, 0, ErrInvalidInput
	}
	if math.Abs(*shareA+*shareB-totalCost) > 0.01 {
		return 0, 0, ErrInvalidInput
	}
	return *shareA, *shareB, nil
}

func roundToCent(amount float64) float64 {
	return math.Round(amount*100) / 100
}
