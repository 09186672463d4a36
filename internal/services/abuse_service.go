package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
)

var ErrMissingUserID = errors.New("user id is required")

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abuse_scans_total",
		Help: "Abuse scans executed, by trigger type",
	}, []string{"trigger"})

	flagsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abuse_flags_total",
		Help: "Abuse flags raised, by type and severity",
	}, []string{"type", "severity"})

	freezesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "abuse_account_freezes_total",
		Help: "Automatic account freezes applied by the scanner",
	})
)

// AbuseThresholds parameterize the heuristic checks. They are fixed at scan
// time; every scan recomputes from the raw history, there is no incremental
// state.
type AbuseThresholds struct {
	MaxSameClientBookings  int
	SameClientWindow       time.Duration
	MaxRefundRate          float64
	RefundHighRate         float64
	MinRefundSample        int
	RefundWindow           time.Duration
	MaxBookingsPerDay      int
	MinTimeBetweenBookings time.Duration
	SuspiciousReviewStreak int
	ReviewSampleSize       int
	NewAccountMaxAge       time.Duration
	NewAccountShare        float64
	MinimalProfileBookings int
	YoungAccountMaxAge     time.Duration
}

func DefaultAbuseThresholds() AbuseThresholds {
	return AbuseThresholds{
		MaxSameClientBookings:  5,
		SameClientWindow:       30 * 24 * time.Hour,
		MaxRefundRate:          0.3,
		RefundHighRate:         0.5,
		MinRefundSample:        10,
		RefundWindow:           90 * 24 * time.Hour,
		MaxBookingsPerDay:      10,
		MinTimeBetweenBookings: 2 * time.Hour,
		SuspiciousReviewStreak: 5,
		ReviewSampleSize:       10,
		NewAccountMaxAge:       7 * 24 * time.Hour,
		NewAccountShare:        0.7,
		MinimalProfileBookings: 10,
		YoungAccountMaxAge:     30 * 24 * time.Hour,
	}
}

type bookingHistoryReader interface {
	CountByClientSince(ctx context.Context, providerID string, since time.Time) (map[string]int, error)
	StatusCountsSince(ctx context.Context, providerID string, since time.Time) (total int, refundedOrCancelled int, err error)
	CreationTimesSince(ctx context.Context, providerID string, since time.Time) ([]time.Time, error)
}

type reviewHistoryReader interface {
	RecentVisible(ctx context.Context, providerID string, limit int) ([]models.ReviewWithAuthor, error)
}

type scanProfileReader interface {
	ScanProfile(ctx context.Context, userID string) (*models.ScanProfile, error)
}

type abuseReviewWriter interface {
	Create(ctx context.Context, input repository.CreateAbuseReviewInput) (*models.AbuseReview, error)
}

type accountFreezer interface {
	FreezeIfActive(ctx context.Context, userID string, reason string) (bool, error)
}

type abuseEventPublisher interface {
	PublishAbuseReview(review *models.AbuseReview)
}

// AbuseService runs the heuristic battery against one user's booking and
// review history and applies the escalation policy. Scans for different users
// may run concurrently; there is no shared mutable state here.
type AbuseService struct {
	bookings   bookingHistoryReader
	reviews    reviewHistoryReader
	profiles   scanProfileReader
	queue      abuseReviewWriter
	accounts   accountFreezer
	events     abuseEventPublisher
	thresholds AbuseThresholds
	now        func() time.Time
}

func NewAbuseService(
	bookings bookingHistoryReader,
	reviews reviewHistoryReader,
	profiles scanProfileReader,
	queue abuseReviewWriter,
	accounts accountFreezer,
	events abuseEventPublisher,
) *AbuseService {
	return &AbuseService{
		bookings:   bookings,
		reviews:    reviews,
		profiles:   profiles,
		queue:      queue,
		accounts:   accounts,
		events:     events,
		thresholds: DefaultAbuseThresholds(),
		now:        time.Now,
	}
}

type ScanResult struct {
	Success         bool               `json:"success"`
	Flags           []models.AbuseFlag `json:"flags"`
	ActionsRequired bool               `json:"actions_required"`
}

// ScanUser runs all five checks, persists a pending review when anything was
// flagged, and freezes the account when any flag is high severity. A single
// check failing its query is logged and contributes no flags; it never aborts
// the sibling checks. Only the persist/freeze steps surface errors.
func (s *AbuseService) ScanUser(ctx context.Context, userID string, triggerType string) (*ScanResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	now := s.now().UTC()
	scansTotal.WithLabelValues(triggerLabel(triggerType)).Inc()

	flags := make([]models.AbuseFlag, 0, 4)
	flags = append(flags, s.runCheck("same_client", func() ([]models.AbuseFlag, error) {
		return s.checkSameClientConcentration(ctx, userID, now)
	})...)
	flags = append(flags, s.runCheck("refund_farming", func() ([]models.AbuseFlag, error) {
		return s.checkRefundFarming(ctx, userID, now)
	})...)
	flags = append(flags, s.runCheck("velocity", func() ([]models.AbuseFlag, error) {
		return s.checkBookingVelocity(ctx, userID, now)
	})...)
	flags = append(flags, s.runCheck("reviews", func() ([]models.AbuseFlag, error) {
		return s.checkSuspiciousReviews(ctx, userID, now)
	})...)
	flags = append(flags, s.runCheck("fake_account", func() ([]models.AbuseFlag, error) {
		return s.checkFakeAccountPattern(ctx, userID, now)
	})...)

	for _, flag := range flags {
		flagsTotal.WithLabelValues(flag.Type, flag.Severity).Inc()
	}

	result := &ScanResult{Success: true, Flags: flags}
	if len(flags) == 0 {
		return result, nil
	}

	review, err := s.queue.Create(ctx, repository.CreateAbuseReviewInput{
		UserID:      userID,
		Flags:       flags,
		TriggerType: triggerType,
	})
	if err != nil {
		return nil, fmt.Errorf("persist abuse review: %w", err)
	}
	if s.events != nil {
		s.events.PublishAbuseReview(review)
	}

	if highTypes := highSeverityTypes(flags); len(highTypes) > 0 {
		result.ActionsRequired = true
		reason := "automatic freeze: high severity abuse flags (" + strings.Join(highTypes, ", ") + ")"
		frozen, err := s.accounts.FreezeIfActive(ctx, userID, reason)
		if err != nil {
			return nil, fmt.Errorf("freeze account: %w", err)
		}
		if frozen {
			freezesTotal.Inc()
			log.Printf("abuse scan froze account %s: %s", userID, reason)
		}
	}

	return result, nil
}

// runCheck isolates one heuristic: a query failure is logged and yields no
// flags so the remaining checks still run.
func (s *AbuseService) runCheck(name string, fn func() ([]models.AbuseFlag, error)) []models.AbuseFlag {
	flags, err := fn()
	if err != nil {
		log.Printf("abuse scan check %s failed: %v", name, err)
		return nil
	}
	return flags
}

func (s *AbuseService) checkSameClientConcentration(ctx context.Context, providerID string, now time.Time) ([]models.AbuseFlag, error) {
	counts, err := s.bookings.CountByClientSince(ctx, providerID, now.Add(-s.thresholds.SameClientWindow))
	if err != nil {
		return nil, err
	}

	clientIDs := make([]string, 0, len(counts))
	for clientID := range counts {
		clientIDs = append(clientIDs, clientID)
	}
	sort.Strings(clientIDs)

	var flags []models.AbuseFlag
	for _, clientID := range clientIDs {
		count := counts[clientID]
		if count <= s.thresholds.MaxSameClientBookings {
			continue
		}
		severity := models.SeverityMedium
		if count > 2*s.thresholds.MaxSameClientBookings {
			severity = models.SeverityHigh
		}
		flags = append(flags, models.AbuseFlag{
			Type:     models.FlagSameClientAbuse,
			Severity: severity,
			Description: fmt.Sprintf("client %s booked this provider %d times in the last 30 days (limit %d)",
				clientID, count, s.thresholds.MaxSameClientBookings),
			Metadata: map[string]any{
				"client_id":   clientID,
				"count":       count,
				"threshold":   s.thresholds.MaxSameClientBookings,
				"window_days": int(s.thresholds.SameClientWindow.Hours() / 24),
			},
		})
	}
	return flags, nil
}

func (s *AbuseService) checkRefundFarming(ctx context.Context, providerID string, now time.Time) ([]models.AbuseFlag, error) {
	total, refunded, err := s.bookings.StatusCountsSince(ctx, providerID, now.Add(-s.thresholds.RefundWindow))
	if err != nil {
		return nil, err
	}
	if total < s.thresholds.MinRefundSample {
		return nil, nil
	}

	rate := float64(refunded) / float64(total)
	if rate <= s.thresholds.MaxRefundRate {
		return nil, nil
	}
	severity := models.SeverityMedium
	if rate > s.thresholds.RefundHighRate {
		severity = models.SeverityHigh
	}
	return []models.AbuseFlag{{
		Type:     models.FlagRefundFarming,
		Severity: severity,
		Description: fmt.Sprintf("%.0f%% of %d bookings in the last 90 days were refunded or cancelled",
			rate*100, total),
		Metadata: map[string]any{
			"total_bookings": total,
			"refunded":       refunded,
			"refund_rate":    rate,
			"threshold":      s.thresholds.MaxRefundRate,
		},
	}}, nil
}

func (s *AbuseService) checkBookingVelocity(ctx context.Context, providerID string, now time.Time) ([]models.AbuseFlag, error) {
	createdAt, err := s.bookings.CreationTimesSince(ctx, providerID, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	var flags []models.AbuseFlag
	if len(createdAt) > s.thresholds.MaxBookingsPerDay {
		flags = append(flags, models.AbuseFlag{
			Type:     models.FlagVelocityAbuse,
			Severity: models.SeverityMedium,
			Description: fmt.Sprintf("%d bookings created in the last 24 hours (limit %d)",
				len(createdAt), s.thresholds.MaxBookingsPerDay),
			Metadata: map[string]any{
				"count":     len(createdAt),
				"threshold": s.thresholds.MaxBookingsPerDay,
			},
		})
	}

	// Timestamps arrive newest-first. Only the first pair closer than the
	// minimum spacing is flagged; the scan stops there. One flag per run is
	// the intended policy, not one per violating pair.
	for i := 0; i+1 < len(createdAt); i++ {
		gap := createdAt[i].Sub(createdAt[i+1])
		if gap < s.thresholds.MinTimeBetweenBookings {
			flags = append(flags, models.AbuseFlag{
				Type:     models.FlagVelocityAbuse,
				Severity: models.SeverityLow,
				Description: fmt.Sprintf("two bookings created %s apart (minimum spacing %s)",
					gap.Round(time.Minute), s.thresholds.MinTimeBetweenBookings),
				Metadata: map[string]any{
					"gap_minutes":     gap.Minutes(),
					"minimum_minutes": s.thresholds.MinTimeBetweenBookings.Minutes(),
				},
			})
			break
		}
	}
	return flags, nil
}

func (s *AbuseService) checkSuspiciousReviews(ctx context.Context, providerID string, now time.Time) ([]models.AbuseFlag, error) {
	reviews, err := s.reviews.RecentVisible(ctx, providerID, s.thresholds.ReviewSampleSize)
	if err != nil {
		return nil, err
	}

	// Walk newest-first and stop at the first non-5-star review: the check
	// cares about an unbroken recent streak only.
	streak := 0
	newClientPerfect := 0
	for _, review := range reviews {
		if review.Rating != 5 {
			break
		}
		streak++
		if now.Sub(review.AuthorCreatedAt) < s.thresholds.NewAccountMaxAge {
			newClientPerfect++
		}
	}

	if streak < s.thresholds.SuspiciousReviewStreak {
		return nil, nil
	}
	needed := int(math.Floor(float64(streak) * s.thresholds.NewAccountShare))
	if newClientPerfect < needed {
		return nil, nil
	}
	return []models.AbuseFlag{{
		Type:     models.FlagSuspiciousReviews,
		Severity: models.SeverityMedium,
		Description: fmt.Sprintf("streak of %d consecutive 5-star reviews, %d from accounts under 7 days old",
			streak, newClientPerfect),
		Metadata: map[string]any{
			"streak":             streak,
			"new_client_perfect": newClientPerfect,
			"required":           needed,
		},
	}}, nil
}

func (s *AbuseService) checkFakeAccountPattern(ctx context.Context, userID string, now time.Time) ([]models.AbuseFlag, error) {
	profile, err := s.profiles.ScanProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var flags []models.AbuseFlag
	if !profile.HasBio && profile.MediaCount == 0 && profile.CompletedBookings > s.thresholds.MinimalProfileBookings {
		flags = append(flags, models.AbuseFlag{
			Type:     models.FlagFakeAccount,
			Severity: models.SeverityLow,
			Description: fmt.Sprintf("minimal profile (no bio, no media) with %d completed bookings",
				profile.CompletedBookings),
			Metadata: map[string]any{
				"completed_bookings": profile.CompletedBookings,
				"has_bio":            profile.HasBio,
				"media_count":        profile.MediaCount,
			},
		})
	}
	if age := now.Sub(profile.AccountCreatedAt); age < s.thresholds.YoungAccountMaxAge && profile.CompletedBookings > s.thresholds.MinimalProfileBookings {
		flags = append(flags, models.AbuseFlag{
			Type:     models.FlagFakeAccount,
			Severity: models.SeverityLow,
			Description: fmt.Sprintf("account is %d days old with %d completed bookings",
				int(age.Hours()/24), profile.CompletedBookings),
			Metadata: map[string]any{
				"account_age_days":   age.Hours() / 24,
				"completed_bookings": profile.CompletedBookings,
			},
		})
	}
	return flags, nil
}

func highSeverityTypes(flags []models.AbuseFlag) []string {
	var types []string
	seen := make(map[string]struct{})
	for _, flag := range flags {
		if flag.Severity != models.SeverityHigh {
			continue
		}
		if _, ok := seen[flag.Type]; ok {
			continue
		}
		seen[flag.Type] = struct{}{}
		types = append(types, flag.Type)
	}
	return types
}

func triggerLabel(triggerType string) string {
	if strings.HasPrefix(triggerType, "scheduled") {
		return "scheduled"
	}
	return "manual"
}
