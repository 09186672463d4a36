package services

import (
	"context"
	"testing"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

type stubProviderLister struct {
	profiles []models.ProviderProfile
	err      error
}

func (s *stubProviderLister) ListAll(ctx context.Context) ([]models.ProviderProfile, error) {
	return s.profiles, s.err
}

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func intPtr(i int) *int              { return &i }
func strsPtr(s []string) *[]string   { return &s }

func makeProvider(userID string) models.ProviderProfile {
	return models.ProviderProfile{
		ID:                 userID + "-profile",
		UserID:             userID,
		VerificationStatus: models.VerificationUnverified,
		OnboardingComplete: true,
	}
}

func TestScoreProviderWeights(t *testing.T) {
	client := &models.ClientProfile{
		Genres:        strsPtr([]string{"hip-hop", "rnb"}),
		MaxHourlyRate: floatPtr(80),
	}

	tests := []struct {
		name     string
		provider models.ProviderProfile
		want     int
	}{
		{
			name:     "no signals",
			provider: makeProvider("p1"),
			want:     0,
		},
		{
			name: "genre overlap only",
			provider: func() models.ProviderProfile {
				p := makeProvider("p2")
				p.Genres = strsPtr([]string{"RnB", "jazz"})
				return p
			}(),
			want: 40,
		},
		{
			name: "all signals",
			provider: func() models.ProviderProfile {
				p := makeProvider("p3")
				p.Genres = strsPtr([]string{"hip-hop"})
				p.Rating = floatPtr(4.8)
				p.ExperienceYears = intPtr(6)
				p.VerificationStatus = models.VerificationVerified
				p.HourlyRate = floatPtr(75)
				return p
			}(),
			want: 100,
		},
		{
			name: "rating at threshold does not count",
			provider: func() models.ProviderProfile {
				p := makeProvider("p4")
				p.Rating = floatPtr(4.0)
				p.ExperienceYears = intPtr(3)
				return p
			}(),
			want: 0,
		},
		{
			name: "over budget loses budget points",
			provider: func() models.ProviderProfile {
				p := makeProvider("p5")
				p.HourlyRate = floatPtr(120)
				p.VerificationStatus = models.VerificationVerified
				return p
			}(),
			want: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreProvider(client, &tt.provider)
			if got != tt.want {
				t.Fatalf("expected score %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFindMatchesOrdersByScore(t *testing.T) {
	low := makeProvider("low")
	high := makeProvider("high")
	high.Genres = strsPtr([]string{"pop"})
	high.Rating = floatPtr(4.9)
	mid := makeProvider("mid")
	mid.VerificationStatus = models.VerificationVerified

	service := NewMatchService(&stubProviderLister{
		profiles: []models.ProviderProfile{low, high, mid},
	})
	client := &models.ClientProfile{Genres: strsPtr([]string{"pop"})}

	matches, err := service.FindMatches(context.Background(), client, MatchFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].UserID != "high" || matches[1].UserID != "mid" || matches[2].UserID != "low" {
		t.Fatalf("unexpected order: %s, %s, %s",
			matches[0].UserID, matches[1].UserID, matches[2].UserID)
	}
}

func TestFindMatchesFiltersProviderType(t *testing.T) {
	studio := makeProvider("studio-1")
	studio.ProviderType = strPtr("studio")
	engineer := makeProvider("engineer-1")
	engineer.ProviderType = strPtr("engineer")

	service := NewMatchService(&stubProviderLister{
		profiles: []models.ProviderProfile{studio, engineer},
	})

	matches, err := service.FindMatches(
		context.Background(),
		&models.ClientProfile{},
		MatchFilter{ProviderType: "studio"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].UserID != "studio-1" {
		t.Fatalf("expected only studio-1, got %+v", matches)
	}
}

func TestFindMatchesLimit(t *testing.T) {
	service := NewMatchService(&stubProviderLister{
		profiles: []models.ProviderProfile{
			makeProvider("a"), makeProvider("b"), makeProvider("c"),
		},
	})

	matches, err := service.FindMatches(
		context.Background(),
		&models.ClientProfile{},
		MatchFilter{Limit: 2},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}
