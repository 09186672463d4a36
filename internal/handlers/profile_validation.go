package handlers

import (
	"strings"
)

var allowedProviderTypes = map[string]struct{}{
	"studio":       {},
	"engineer":     {},
	"producer":     {},
	"artist":       {},
	"videographer": {},
}

func validateProviderOnboardingRequest(req providerOnboardingRequest) string {
	if strings.TrimSpace(req.DisplayName) == "" {
		return "display_name is required"
	}
	if strings.TrimSpace(req.Bio) == "" {
		return "bio is required"
	}
	if err := validateProviderType(req.ProviderType); err != "" {
		return err
	}
	if len(req.Genres) == 0 {
		return "genres must contain at least one item"
	}
	for _, genre := range req.Genres {
		if strings.TrimSpace(genre) == "" {
			return "genres must not contain empty values"
		}
	}
	for _, credit := range req.Credits {
		if strings.TrimSpace(credit) == "" {
			return "credits must not contain empty values"
		}
	}
	if req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if req.HourlyRate <= 0 {
		return "hourly_rate must be greater than 0"
	}
	return ""
}

func validateClientOnboardingRequest(req clientOnboardingRequest) string {
	if strings.TrimSpace(req.DisplayName) == "" {
		return "display_name is required"
	}
	for _, genre := range req.Genres {
		if strings.TrimSpace(genre) == "" {
			return "genres must not contain empty values"
		}
	}
	if req.MaxHourlyRate != nil && *req.MaxHourlyRate <= 0 {
		return "max_hourly_rate must be greater than 0"
	}
	return ""
}

func validateProviderProfileUpdateRequest(req updateProviderProfileRequest) string {
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return "display_name must not be empty"
	}
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		return "bio must not be empty"
	}
	if req.ProviderType != nil {
		if err := validateProviderType(*req.ProviderType); err != "" {
			return err
		}
	}
	if req.Genres != nil {
		for _, genre := range *req.Genres {
			if strings.TrimSpace(genre) == "" {
				return "genres must not contain empty values"
			}
		}
	}
	if req.Credits != nil {
		for _, credit := range *req.Credits {
			if strings.TrimSpace(credit) == "" {
				return "credits must not contain empty values"
			}
		}
	}
	if req.ExperienceYears != nil && *req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if req.HourlyRate != nil && *req.HourlyRate <= 0 {
		return "hourly_rate must be greater than 0"
	}
	return ""
}

func validateClientProfileUpdateRequest(req updateClientProfileRequest) string {
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) == "" {
		return "display_name must not be empty"
	}
	if req.Genres != nil {
		for _, genre := range *req.Genres {
			if strings.TrimSpace(genre) == "" {
				return "genres must not contain empty values"
			}
		}
	}
	if req.MaxHourlyRate != nil && *req.MaxHourlyRate <= 0 {
		return "max_hourly_rate must be greater than 0"
	}
	return ""
}

func validateProviderType(providerType string) string {
	if _, ok := allowedProviderTypes[strings.ToLower(strings.TrimSpace(providerType))]; !ok {
		return "provider_type must be one of: studio, engineer, producer, artist, videographer"
	}
	return ""
}
