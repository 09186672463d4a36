package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

// Integration coverage for the booking repository. Requires a migrated
// database; set TEST_DB_URL to run, otherwise the tests skip.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbUrl := os.Getenv("TEST_DB_URL")
	if dbUrl == "" {
		t.Skip("TEST_DB_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dbUrl)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func createTestUser(t *testing.T, pool *pgxpool.Pool, role string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, 'x', $3)
	`, id, fmt.Sprintf("%s@test.local", id), role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func createTestBooking(t *testing.T, pool *pgxpool.Pool, repo *SplitBookingRepository, scheduledAt time.Time) *models.SplitBooking {
	t.Helper()
	provider := createTestUser(t, pool, models.RoleProvider)
	clientA := createTestUser(t, pool, models.RoleClient)
	clientB := createTestUser(t, pool, models.RoleClient)

	booking, err := repo.Create(context.Background(), CreateSplitBookingInput{
		ProviderID:      provider,
		ClientAUid:      clientA,
		ClientBUid:      clientB,
		ScheduledAt:     scheduledAt,
		DurationMinutes: 120,
		TotalCost:       200,
		ClientAShare:    100,
		ClientBShare:    100,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM split_bookings WHERE id = $1`, booking.ID)
	})
	return booking
}

func TestSplitBookingCreateAndGet(t *testing.T) {
	pool := testPool(t)
	repo := NewSplitBookingRepository(pool)

	booking := createTestBooking(t, pool, repo, time.Now().Add(48*time.Hour))
	if booking.Status != models.BookingStatusPending {
		t.Fatalf("expected pending status, got %s", booking.Status)
	}
	if booking.ClientAPaymentStatus != models.PaymentStatusPending {
		t.Fatalf("expected pending payment status, got %s", booking.ClientAPaymentStatus)
	}

	fetched, err := repo.GetByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if fetched.ProviderID != booking.ProviderID || fetched.TotalCost != 200 {
		t.Fatalf("fetched booking does not match created one: %+v", fetched)
	}
}

func TestSplitBookingStatusGuard(t *testing.T) {
	pool := testPool(t)
	repo := NewSplitBookingRepository(pool)
	ctx := context.Background()

	booking := createTestBooking(t, pool, repo, time.Now().Add(72*time.Hour))

	updated, err := repo.UpdateStatusIfCurrent(ctx, booking.ID, models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm booking: %v", err)
	}
	if updated.Status != models.BookingStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}

	// Stale expected status must not win.
	if _, err := repo.UpdateStatusIfCurrent(ctx, booking.ID, models.BookingStatusPending, models.BookingStatusCancelled); err == nil {
		t.Fatal("expected guard miss on stale status")
	}
}

func TestSplitBookingConflictDetection(t *testing.T) {
	pool := testPool(t)
	repo := NewSplitBookingRepository(pool)
	ctx := context.Background()

	start := time.Now().Add(96 * time.Hour).Truncate(time.Minute)
	booking := createTestBooking(t, pool, repo, start)

	overlapping, err := repo.HasConflict(ctx, booking.ProviderID, start.Add(30*time.Minute), 60)
	if err != nil {
		t.Fatalf("conflict check: %v", err)
	}
	if !overlapping {
		t.Fatal("expected overlap inside the booked window")
	}

	clear, err := repo.HasConflict(ctx, booking.ProviderID, start.Add(3*time.Hour), 60)
	if err != nil {
		t.Fatalf("conflict check: %v", err)
	}
	if clear {
		t.Fatal("expected no overlap after the booked window")
	}
}
