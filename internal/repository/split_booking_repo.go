package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

type CreateSplitBookingInput struct {
	ProviderID         string
	ClientAUid         string
	ClientBUid         string
	ScheduledAt        time.Time
	DurationMinutes    int
	TotalCost          float64
	ClientAShare       float64
	ClientBShare       float64
	RequestedTalentUid *string
	Notes              *string
}

type SplitBookingListFilter struct {
	ActorID   string
	Role      string
	Status    string
	Timeframe string
}

const splitBookingColumns = `id, provider_id, client_a_uid, client_b_uid, scheduled_at, duration_min,
	total_cost, client_a_share, client_b_share, client_a_payment_status, client_b_payment_status,
	status, stripe_session_a, stripe_session_b, requested_talent_uid, talent_status, notes,
	created_at, updated_at`

type SplitBookingRepository struct {
	db DBTX
}

func NewSplitBookingRepository(db DBTX) *SplitBookingRepository {
	return &SplitBookingRepository{db: db}
}

func (r *SplitBookingRepository) scanBooking(row interface{ Scan(dest ...any) error }) (*models.SplitBooking, error) {
	var b models.SplitBooking
	err := row.Scan(
		&b.ID,
		&b.ProviderID,
		&b.ClientAUid,
		&b.ClientBUid,
		&b.ScheduledAt,
		&b.DurationMinutes,
		&b.TotalCost,
		&b.ClientAShare,
		&b.ClientBShare,
		&b.ClientAPaymentStatus,
		&b.ClientBPaymentStatus,
		&b.Status,
		&b.StripeSessionA,
		&b.StripeSessionB,
		&b.RequestedTalentUid,
		&b.TalentStatus,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *SplitBookingRepository) Create(ctx context.Context, input CreateSplitBookingInput) (*models.SplitBooking, error) {
	talentStatus := any(nil)
	if input.RequestedTalentUid != nil {
		talentStatus = models.TalentStatusInvited
	}

	query := fmt.Sprintf(`
		INSERT INTO split_bookings (id, provider_id, client_a_uid, client_b_uid, scheduled_at, duration_min,
			total_cost, client_a_share, client_b_share, status, requested_talent_uid, talent_status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, $11, $12)
		RETURNING %s
	`, splitBookingColumns)

	return r.scanBooking(r.db.QueryRow(ctx, query,
		uuid.New().String(),
		input.ProviderID,
		input.ClientAUid,
		input.ClientBUid,
		input.ScheduledAt,
		input.DurationMinutes,
		input.TotalCost,
		input.ClientAShare,
		input.ClientBShare,
		input.RequestedTalentUid,
		talentStatus,
		input.Notes,
	))
}

func (r *SplitBookingRepository) GetByID(ctx context.Context, bookingID string) (*models.SplitBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM split_bookings WHERE id = $1`, splitBookingColumns)
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *SplitBookingRepository) GetByIDForUpdate(ctx context.Context, bookingID string) (*models.SplitBooking, error) {
	query := fmt.Sprintf(`SELECT %s FROM split_bookings WHERE id = $1 FOR UPDATE`, splitBookingColumns)
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *SplitBookingRepository) List(ctx context.Context, filter SplitBookingListFilter) ([]models.SplitBooking, error) {
	args := []any{filter.ActorID}
	var whereParts []string
	if filter.Role == models.RoleProvider {
		whereParts = append(whereParts, "provider_id = $1")
	} else {
		whereParts = append(whereParts, "(client_a_uid = $1 OR client_b_uid = $1)")
	}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) > NOW()",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) <= NOW()",
		)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM split_bookings
		WHERE %s
		ORDER BY scheduled_at ASC, id ASC
	`, splitBookingColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.SplitBooking, 0)
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *SplitBookingRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	bookingID string,
	currentStatus string,
	nextStatus string,
) (*models.SplitBooking, error) {
	query := fmt.Sprintf(`
		UPDATE split_bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, splitBookingColumns)
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

// SetClientCheckoutSession stores the hosted checkout session id for one
// client slot ("a" or "b"). The slot columns are fixed, never interpolated
// from user input.
func (r *SplitBookingRepository) SetClientCheckoutSession(
	ctx context.Context,
	bookingID string,
	slot string,
	sessionID string,
) error {
	column, err := sessionColumn(slot)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE split_bookings
		SET %s = $2, updated_at = NOW()
		WHERE id = $1
	`, column)
	_, err = r.db.Exec(ctx, query, bookingID, sessionID)
	return err
}

func (r *SplitBookingRepository) UpdateClientPaymentStatusIfCurrent(
	ctx context.Context,
	bookingID string,
	slot string,
	currentStatus string,
	nextStatus string,
) (*models.SplitBooking, error) {
	column, err := paymentColumn(slot)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		UPDATE split_bookings
		SET %s = $3, updated_at = NOW()
		WHERE id = $1 AND %s = $2
		RETURNING %s
	`, column, column, splitBookingColumns)
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

// FindByCheckoutSession resolves a checkout session id back to its booking
// and client slot. Used by the payment webhook.
func (r *SplitBookingRepository) FindByCheckoutSession(ctx context.Context, sessionID string) (*models.SplitBooking, string, error) {
	query := fmt.Sprintf(`
		SELECT %s,
			CASE WHEN stripe_session_a = $1 THEN 'a' ELSE 'b' END
		FROM split_bookings
		WHERE stripe_session_a = $1 OR stripe_session_b = $1
	`, splitBookingColumns)

	var b models.SplitBooking
	var slot string
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&b.ID,
		&b.ProviderID,
		&b.ClientAUid,
		&b.ClientBUid,
		&b.ScheduledAt,
		&b.DurationMinutes,
		&b.TotalCost,
		&b.ClientAShare,
		&b.ClientBShare,
		&b.ClientAPaymentStatus,
		&b.ClientBPaymentStatus,
		&b.Status,
		&b.StripeSessionA,
		&b.StripeSessionB,
		&b.RequestedTalentUid,
		&b.TalentStatus,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
		&slot,
	)
	if err != nil {
		return nil, "", err
	}
	return &b, slot, nil
}

func (r *SplitBookingRepository) UpdateTalentStatusIfCurrent(
	ctx context.Context,
	bookingID string,
	currentStatus string,
	nextStatus string,
) (*models.SplitBooking, error) {
	query := fmt.Sprintf(`
		UPDATE split_bookings
		SET talent_status = $3, updated_at = NOW()
		WHERE id = $1 AND talent_status = $2
		RETURNING %s
	`, splitBookingColumns)
	return r.scanBooking(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

func (r *SplitBookingRepository) HasConflict(
	ctx context.Context,
	providerID string,
	requestedTime time.Time,
	durationMinutes int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM split_bookings
			WHERE provider_id = $1
			  AND status <> 'cancelled'
			  AND scheduled_at < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, providerID, requestedTime, durationMinutes).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

// HasCompletedBooking reports whether a client finished at least one session
// with a provider, in either payer slot.
func (r *SplitBookingRepository) HasCompletedBooking(
	ctx context.Context,
	providerID string,
	clientUid string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM split_bookings
			WHERE provider_id = $1
			  AND status = 'completed'
			  AND (client_a_uid = $2 OR client_b_uid = $2)
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, providerID, clientUid).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CountByClientSince counts completed or confirmed bookings per distinct
// client uid for one provider. Both payer slots count toward a client's
// total.
func (r *SplitBookingRepository) CountByClientSince(
	ctx context.Context,
	providerID string,
	since time.Time,
) (map[string]int, error) {
	query := `
		SELECT client_uid, COUNT(*)
		FROM (
			SELECT client_a_uid AS client_uid
			FROM split_bookings
			WHERE provider_id = $1 AND status IN ('completed', 'confirmed') AND created_at >= $2
			UNION ALL
			SELECT client_b_uid
			FROM split_bookings
			WHERE provider_id = $1 AND status IN ('completed', 'confirmed') AND created_at >= $2
		) participants
		GROUP BY client_uid
	`
	rows, err := r.db.Query(ctx, query, providerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var clientUid string
		var count int
		if err := rows.Scan(&clientUid, &count); err != nil {
			return nil, err
		}
		counts[clientUid] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// StatusCountsSince returns total bookings and how many of them ended in a
// cancellation or a refunded share, within the window.
func (r *SplitBookingRepository) StatusCountsSince(
	ctx context.Context,
	providerID string,
	since time.Time,
) (int, int, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (
				WHERE status = 'cancelled'
				   OR client_a_payment_status = 'refunded'
				   OR client_b_payment_status = 'refunded'
			)
		FROM split_bookings
		WHERE provider_id = $1 AND created_at >= $2
	`
	var total, refunded int
	if err := r.db.QueryRow(ctx, query, providerID, since).Scan(&total, &refunded); err != nil {
		return 0, 0, err
	}
	return total, refunded, nil
}

// CreationTimesSince lists booking creation timestamps newest-first. The
// velocity check depends on the descending order.
func (r *SplitBookingRepository) CreationTimesSince(
	ctx context.Context,
	providerID string,
	since time.Time,
) ([]time.Time, error) {
	query := `
		SELECT created_at
		FROM split_bookings
		WHERE provider_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, providerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var createdAt time.Time
		if err := rows.Scan(&createdAt); err != nil {
			return nil, err
		}
		times = append(times, createdAt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return times, nil
}

// ActiveProviderIDs lists providers with any booking activity since the given
// time. The scan scheduler sweeps these.
func (r *SplitBookingRepository) ActiveProviderIDs(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT provider_id
		FROM split_bookings
		WHERE created_at >= $1
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func sessionColumn(slot string) (string, error) {
	switch slot {
	case "a":
		return "stripe_session_a", nil
	case "b":
		return "stripe_session_b", nil
	default:
		return "", fmt.Errorf("unknown client slot %q", slot)
	}
}

func paymentColumn(slot string) (string, error) {
	switch slot {
	case "a":
		return "client_a_payment_status", nil
	case "b":
		return "client_b_payment_status", nil
	default:
		return "", fmt.Errorf("unknown client slot %q", slot)
	}
}
