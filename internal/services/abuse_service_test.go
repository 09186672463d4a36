package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
)

type stubBookingHistory struct {
	counts        map[string]int
	countsErr     error
	total         int
	refunded      int
	statusErr     error
	creationTimes []time.Time
	creationErr   error
}

func (s *stubBookingHistory) CountByClientSince(ctx context.Context, providerID string, since time.Time) (map[string]int, error) {
	return s.counts, s.countsErr
}

func (s *stubBookingHistory) StatusCountsSince(ctx context.Context, providerID string, since time.Time) (int, int, error) {
	return s.total, s.refunded, s.statusErr
}

func (s *stubBookingHistory) CreationTimesSince(ctx context.Context, providerID string, since time.Time) ([]time.Time, error) {
	return s.creationTimes, s.creationErr
}

type stubReviewHistory struct {
	reviews []models.ReviewWithAuthor
	err     error
}

func (s *stubReviewHistory) RecentVisible(ctx context.Context, providerID string, limit int) ([]models.ReviewWithAuthor, error) {
	if len(s.reviews) > limit {
		return s.reviews[:limit], s.err
	}
	return s.reviews, s.err
}

type stubScanProfiles struct {
	profile *models.ScanProfile
	err     error
}

func (s *stubScanProfiles) ScanProfile(ctx context.Context, userID string) (*models.ScanProfile, error) {
	return s.profile, s.err
}

type stubAbuseQueue struct {
	created []repository.CreateAbuseReviewInput
	err     error
}

func (s *stubAbuseQueue) Create(ctx context.Context, input repository.CreateAbuseReviewInput) (*models.AbuseReview, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, input)
	return &models.AbuseReview{
		ID:          "review-1",
		UserID:      input.UserID,
		Flags:       input.Flags,
		TriggerType: input.TriggerType,
		Status:      models.AbuseReviewStatusPending,
	}, nil
}

type stubFreezer struct {
	frozen  []string
	reasons []string
	active  bool
	err     error
}

func (s *stubFreezer) FreezeIfActive(ctx context.Context, userID string, reason string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.frozen = append(s.frozen, userID)
	s.reasons = append(s.reasons, reason)
	return s.active, nil
}

type abuseFixture struct {
	bookings *stubBookingHistory
	reviews  *stubReviewHistory
	profiles *stubScanProfiles
	queue    *stubAbuseQueue
	freezer  *stubFreezer
	service  *AbuseService
	now      time.Time
}

func newAbuseFixture() *abuseFixture {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	f := &abuseFixture{
		bookings: &stubBookingHistory{counts: map[string]int{}},
		reviews:  &stubReviewHistory{},
		profiles: &stubScanProfiles{profile: &models.ScanProfile{
			UserID:           "provider-1",
			HasBio:           true,
			MediaCount:       3,
			AccountCreatedAt: now.Add(-365 * 24 * time.Hour),
		}},
		queue:   &stubAbuseQueue{},
		freezer: &stubFreezer{active: true},
		now:     now,
	}
	f.service = NewAbuseService(f.bookings, f.reviews, f.profiles, f.queue, f.freezer, nil)
	f.service.now = func() time.Time { return now }
	return f
}

func flagsOfType(flags []models.AbuseFlag, flagType string) []models.AbuseFlag {
	var out []models.AbuseFlag
	for _, flag := range flags {
		if flag.Type == flagType {
			out = append(out, flag)
		}
	}
	return out
}

func TestScanUserRequiresUserID(t *testing.T) {
	f := newAbuseFixture()
	if _, err := f.service.ScanUser(context.Background(), "  ", "manual"); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}

func TestScanUserCleanHistory(t *testing.T) {
	f := newAbuseFixture()

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || len(result.Flags) != 0 || result.ActionsRequired {
		t.Fatalf("expected clean result, got %+v", result)
	}
	if len(f.queue.created) != 0 {
		t.Fatalf("clean scan should not persist a review")
	}
	if len(f.freezer.frozen) != 0 {
		t.Fatalf("clean scan should not freeze")
	}
}

func TestSameClientConcentrationThresholds(t *testing.T) {
	tests := []struct {
		name         string
		count        int
		wantFlags    int
		wantSeverity string
	}{
		{"at threshold passes", 5, 0, ""},
		{"just over is medium", 6, 1, models.SeverityMedium},
		{"double threshold still medium", 10, 1, models.SeverityMedium},
		{"over double is high", 11, 1, models.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAbuseFixture()
			f.bookings.counts = map[string]int{"client-1": tt.count}

			result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			flags := flagsOfType(result.Flags, models.FlagSameClientAbuse)
			if len(flags) != tt.wantFlags {
				t.Fatalf("expected %d same-client flags, got %d", tt.wantFlags, len(flags))
			}
			if tt.wantFlags > 0 && flags[0].Severity != tt.wantSeverity {
				t.Fatalf("expected severity %s, got %s", tt.wantSeverity, flags[0].Severity)
			}
		})
	}
}

func TestRefundFarmingNeedsSample(t *testing.T) {
	f := newAbuseFixture()
	f.bookings.total = 9
	f.bookings.refunded = 9

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flagsOfType(result.Flags, models.FlagRefundFarming)) != 0 {
		t.Fatalf("sample below minimum should not flag")
	}
}

func TestRefundFarmingSeverity(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		refunded     int
		wantSeverity string
	}{
		{"over 30 percent is medium", 10, 4, models.SeverityMedium},
		{"over 50 percent is high", 10, 6, models.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAbuseFixture()
			f.bookings.total = tt.total
			f.bookings.refunded = tt.refunded

			result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			flags := flagsOfType(result.Flags, models.FlagRefundFarming)
			if len(flags) != 1 {
				t.Fatalf("expected one refund flag, got %d", len(flags))
			}
			if flags[0].Severity != tt.wantSeverity {
				t.Fatalf("expected severity %s, got %s", tt.wantSeverity, flags[0].Severity)
			}
		})
	}
}

func TestBookingVelocitySpacingFlagsOnce(t *testing.T) {
	f := newAbuseFixture()
	// Newest first. Two violating pairs, but only the first should flag.
	f.bookings.creationTimes = []time.Time{
		f.now.Add(-10 * time.Minute),
		f.now.Add(-30 * time.Minute),
		f.now.Add(-40 * time.Minute),
		f.now.Add(-5 * time.Hour),
	}

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flags := flagsOfType(result.Flags, models.FlagVelocityAbuse)
	if len(flags) != 1 {
		t.Fatalf("expected exactly one velocity flag, got %d", len(flags))
	}
	if flags[0].Severity != models.SeverityLow {
		t.Fatalf("expected low severity spacing flag, got %s", flags[0].Severity)
	}
}

func TestBookingVelocityDailyCount(t *testing.T) {
	f := newAbuseFixture()
	times := make([]time.Time, 11)
	for i := range times {
		times[i] = f.now.Add(-time.Duration(i*2+1) * time.Hour)
	}
	f.bookings.creationTimes = times

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flags := flagsOfType(result.Flags, models.FlagVelocityAbuse)
	if len(flags) != 1 {
		t.Fatalf("expected one daily-count flag, got %d", len(flags))
	}
	if flags[0].Severity != models.SeverityMedium {
		t.Fatalf("expected medium severity, got %s", flags[0].Severity)
	}
}

func reviewAt(rating int, authorAge time.Duration, now time.Time) models.ReviewWithAuthor {
	return models.ReviewWithAuthor{
		Review:          models.Review{Rating: rating, Visible: true},
		AuthorCreatedAt: now.Add(-authorAge),
	}
}

func TestSuspiciousReviewStreakStopsAtFirstBreak(t *testing.T) {
	f := newAbuseFixture()
	day := 24 * time.Hour
	// Newest first: five perfect reviews from new accounts, then a 4-star,
	// then more perfect ones that must not count.
	f.reviews.reviews = []models.ReviewWithAuthor{
		reviewAt(5, 2*day, f.now),
		reviewAt(5, 3*day, f.now),
		reviewAt(5, 1*day, f.now),
		reviewAt(5, 4*day, f.now),
		reviewAt(5, 2*day, f.now),
		reviewAt(4, 100*day, f.now),
		reviewAt(5, 1*day, f.now),
		reviewAt(5, 1*day, f.now),
	}

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flags := flagsOfType(result.Flags, models.FlagSuspiciousReviews)
	if len(flags) != 1 {
		t.Fatalf("expected one review flag, got %d", len(flags))
	}
	if got := flags[0].Metadata["streak"]; got != 5 {
		t.Fatalf("expected streak of 5, got %v", got)
	}
}

func TestSuspiciousReviewStreakNeedsNewAccounts(t *testing.T) {
	f := newAbuseFixture()
	day := 24 * time.Hour
	f.reviews.reviews = []models.ReviewWithAuthor{
		reviewAt(5, 100*day, f.now),
		reviewAt(5, 200*day, f.now),
		reviewAt(5, 300*day, f.now),
		reviewAt(5, 2*day, f.now),
		reviewAt(5, 400*day, f.now),
	}

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flagsOfType(result.Flags, models.FlagSuspiciousReviews)) != 0 {
		t.Fatalf("streak from established accounts should not flag")
	}
}

func TestFakeAccountPattern(t *testing.T) {
	f := newAbuseFixture()
	f.profiles.profile = &models.ScanProfile{
		UserID:            "provider-1",
		HasBio:            false,
		MediaCount:        0,
		CompletedBookings: 15,
		AccountCreatedAt:  f.now.Add(-10 * 24 * time.Hour),
	}

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flags := flagsOfType(result.Flags, models.FlagFakeAccount)
	if len(flags) != 2 {
		t.Fatalf("expected minimal-profile and young-account flags, got %d", len(flags))
	}
}

func TestHighSeverityFlagFreezesAccount(t *testing.T) {
	f := newAbuseFixture()
	f.bookings.counts = map[string]int{"client-1": 11}

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.ActionsRequired {
		t.Fatalf("expected actions required")
	}
	if len(f.freezer.frozen) != 1 || f.freezer.frozen[0] != "provider-1" {
		t.Fatalf("expected provider-1 frozen, got %v", f.freezer.frozen)
	}
	if len(f.queue.created) != 1 {
		t.Fatalf("expected one persisted review, got %d", len(f.queue.created))
	}
}

func TestMediumSeverityDoesNotFreeze(t *testing.T) {
	f := newAbuseFixture()
	f.bookings.counts = map[string]int{"client-1": 6}

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ActionsRequired {
		t.Fatalf("medium severity should not require actions")
	}
	if len(f.freezer.frozen) != 0 {
		t.Fatalf("medium severity should not freeze, got %v", f.freezer.frozen)
	}
	if len(f.queue.created) != 1 {
		t.Fatalf("flags should still persist a review")
	}
}

func TestCheckFailureIsIsolated(t *testing.T) {
	f := newAbuseFixture()
	f.bookings.statusErr = errors.New("query timeout")
	f.bookings.counts = map[string]int{"client-1": 6}

	result, err := f.service.ScanUser(context.Background(), "provider-1", "manual")
	if err != nil {
		t.Fatalf("one failing check must not fail the scan: %v", err)
	}
	if len(flagsOfType(result.Flags, models.FlagSameClientAbuse)) != 1 {
		t.Fatalf("sibling checks should still run")
	}
	if len(flagsOfType(result.Flags, models.FlagRefundFarming)) != 0 {
		t.Fatalf("failed check must contribute no flags")
	}
}

func TestPersistFailureSurfaces(t *testing.T) {
	f := newAbuseFixture()
	f.bookings.counts = map[string]int{"client-1": 6}
	f.queue.err = errors.New("insert failed")

	if _, err := f.service.ScanUser(context.Background(), "provider-1", "manual"); err == nil {
		t.Fatalf("expected persist error to surface")
	}
	if len(f.freezer.frozen) != 0 {
		t.Fatalf("freeze must not run when persist fails")
	}
}
