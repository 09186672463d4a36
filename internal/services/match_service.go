package services

import (
	"context"
	"sort"
	"strings"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

type providerLister interface {
	ListAll(ctx context.Context) ([]models.ProviderProfile, error)
}

// MatchService ranks providers for a client using a weighted score over
// genre overlap, reputation, experience, verification, and budget fit.
type MatchService struct {
	providers providerLister
}

func NewMatchService(providers providerLister) *MatchService {
	return &MatchService{providers: providers}
}

type MatchFilter struct {
	ProviderType string
	Limit        int
}

func (s *MatchService) FindMatches(
	ctx context.Context,
	client *models.ClientProfile,
	filter MatchFilter,
) ([]models.ProviderWithScore, error) {
	profiles, err := s.providers.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]models.ProviderWithScore, 0, len(profiles))
	for _, profile := range profiles {
		if filter.ProviderType != "" {
			if profile.ProviderType == nil || *profile.ProviderType != filter.ProviderType {
				continue
			}
		}
		matches = append(matches, models.ProviderWithScore{
			ProviderProfile: profile,
			MatchScore:      scoreProvider(client, &profile),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, nil
}

func scoreProvider(client *models.ClientProfile, provider *models.ProviderProfile) int {
	score := 0

	if client.Genres != nil && provider.Genres != nil && genresOverlap(*client.Genres, *provider.Genres) {
		score += 40
	}
	if provider.Rating != nil && *provider.Rating > 4.0 {
		score += 20
	}
	if provider.ExperienceYears != nil && *provider.ExperienceYears > 3 {
		score += 15
	}
	if provider.VerificationStatus == models.VerificationVerified {
		score += 10
	}
	if client.MaxHourlyRate != nil && provider.HourlyRate != nil &&
		*provider.HourlyRate <= *client.MaxHourlyRate {
		score += 15
	}

	return score
}

func genresOverlap(a, b []string) bool {
	seen := make(map[string]struct{}, len(a))
	for _, genre := range a {
		seen[strings.ToLower(strings.TrimSpace(genre))] = struct{}{}
	}
	for _, genre := range b {
		if _, ok := seen[strings.ToLower(strings.TrimSpace(genre))]; ok {
			return true
		}
	}
	return false
}
