package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
	"github.com/aydin-k/StudioSplitBack/internal/services"
)

type stubProviderRepo struct {
	profiles   []models.ProviderProfile
	profile    *models.ProviderProfile
	lastFilter repository.ProviderListFilter
}

func (s *stubProviderRepo) List(ctx context.Context, filter repository.ProviderListFilter) ([]models.ProviderProfile, int, error) {
	s.lastFilter = filter
	return s.profiles, len(s.profiles), nil
}

func (s *stubProviderRepo) GetByUserID(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	if s.profile == nil {
		return nil, pgx.ErrNoRows
	}
	return s.profile, nil
}

type stubClientRepo struct {
	profile *models.ClientProfile
}

func (s *stubClientRepo) GetByUserID(ctx context.Context, userID string) (*models.ClientProfile, error) {
	if s.profile == nil {
		return nil, pgx.ErrNoRows
	}
	return s.profile, nil
}

type stubMatcher struct {
	matches []models.ProviderWithScore
}

func (s *stubMatcher) FindMatches(ctx context.Context, client *models.ClientProfile, filter services.MatchFilter) ([]models.ProviderWithScore, error) {
	return s.matches, nil
}

type stubReviewLister struct {
	reviews []models.Review
}

func (s *stubReviewLister) ListForProvider(ctx context.Context, providerID string, limit, offset int) ([]models.Review, int, error) {
	return s.reviews, len(s.reviews), nil
}

func newDiscoveryTestApp(
	providers *stubProviderRepo,
	clients *stubClientRepo,
	matcher *stubMatcher,
	reviews *stubReviewLister,
	role string,
) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "client-1")
		c.Locals("role", role)
		return c.Next()
	})
	handler := NewProviderDiscoveryHandler(providers, clients, matcher, reviews)
	app.Get("/providers", handler.ListProviders)
	app.Get("/providers/recommended", handler.GetRecommendedProviders)
	app.Get("/providers/:id", handler.GetProviderDetail)
	return app
}

func namedProvider(userID, name string) models.ProviderProfile {
	return models.ProviderProfile{
		UserID:             userID,
		DisplayName:        &name,
		VerificationStatus: models.VerificationVerified,
		OnboardingComplete: true,
	}
}

func TestListProvidersForwardsFilters(t *testing.T) {
	providers := &stubProviderRepo{profiles: []models.ProviderProfile{namedProvider("p1", "Studio One")}}
	app := newDiscoveryTestApp(providers, &stubClientRepo{}, &stubMatcher{}, &stubReviewLister{}, models.RoleClient)

	resp, err := app.Test(httptest.NewRequest(
		http.MethodGet, "/providers?type=studio&genre=jazz&min_rating=4&max_rate=90&limit=5", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if providers.lastFilter.ProviderType != "studio" || providers.lastFilter.Genre != "jazz" {
		t.Fatalf("filters not forwarded: %+v", providers.lastFilter)
	}
	if providers.lastFilter.MinRating != 4 || providers.lastFilter.MaxRate != 90 || providers.lastFilter.Limit != 5 {
		t.Fatalf("numeric filters not forwarded: %+v", providers.lastFilter)
	}
}

func TestListProvidersRejectsBadRating(t *testing.T) {
	app := newDiscoveryTestApp(&stubProviderRepo{}, &stubClientRepo{}, &stubMatcher{}, &stubReviewLister{}, models.RoleClient)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/providers?min_rating=-1", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRecommendedProvidersRequiresClient(t *testing.T) {
	app := newDiscoveryTestApp(&stubProviderRepo{}, &stubClientRepo{}, &stubMatcher{}, &stubReviewLister{}, models.RoleProvider)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/providers/recommended", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestRecommendedProvidersIncludeScore(t *testing.T) {
	matcher := &stubMatcher{matches: []models.ProviderWithScore{
		{ProviderProfile: namedProvider("p1", "Studio One"), MatchScore: 75},
	}}
	clients := &stubClientRepo{profile: &models.ClientProfile{UserID: "client-1"}}
	app := newDiscoveryTestApp(&stubProviderRepo{}, clients, matcher, &stubReviewLister{}, models.RoleClient)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/providers/recommended", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Providers []models.ProviderListResponse `json:"providers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Providers) != 1 || body.Providers[0].MatchScore != 75 {
		t.Fatalf("expected one provider with score 75, got %+v", body.Providers)
	}
}

func TestGetProviderDetailNotFound(t *testing.T) {
	app := newDiscoveryTestApp(&stubProviderRepo{}, &stubClientRepo{}, &stubMatcher{}, &stubReviewLister{}, models.RoleClient)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/providers/p404", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
