package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
)

type stubProgramStore struct {
	programs map[string]*models.MentorshipProgram
	created  []repository.CreateMentorshipProgramInput
}

func (s *stubProgramStore) Create(ctx context.Context, input repository.CreateMentorshipProgramInput) (*models.MentorshipProgram, error) {
	s.created = append(s.created, input)
	return &models.MentorshipProgram{
		ID:            "program-1",
		ProviderID:    input.ProviderID,
		Title:         input.Title,
		PriceUSD:      input.PriceUSD,
		DurationWeeks: input.DurationWeeks,
		Active:        true,
	}, nil
}

func (s *stubProgramStore) GetByID(ctx context.Context, programID string) (*models.MentorshipProgram, error) {
	program, ok := s.programs[programID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return program, nil
}

func (s *stubProgramStore) ListByProviderID(ctx context.Context, providerID string) ([]models.MentorshipProgram, error) {
	return nil, nil
}

func (s *stubProgramStore) ListActive(ctx context.Context) ([]models.MentorshipProgram, error) {
	return nil, nil
}

func (s *stubProgramStore) Deactivate(ctx context.Context, programID, providerID string) error {
	if program, ok := s.programs[programID]; ok && program.ProviderID == providerID {
		program.Active = false
	}
	return nil
}

type stubEnrollmentStore struct {
	active  map[string]bool
	created []string
}

func (s *stubEnrollmentStore) Create(ctx context.Context, programID, clientID string) (*models.MentorshipEnrollment, error) {
	s.created = append(s.created, programID+":"+clientID)
	return &models.MentorshipEnrollment{
		ID:        "enrollment-1",
		ProgramID: programID,
		ClientID:  clientID,
		Status:    models.EnrollmentStatusActive,
	}, nil
}

func (s *stubEnrollmentStore) ListByClientID(ctx context.Context, clientID string) ([]models.MentorshipEnrollment, error) {
	return nil, nil
}

func (s *stubEnrollmentStore) HasActiveEnrollment(ctx context.Context, programID, clientID string) (bool, error) {
	return s.active[programID+":"+clientID], nil
}

type stubUserReader struct {
	users map[string]*models.User
}

func (s *stubUserReader) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func newProgramFixture() (*ProgramService, *stubProgramStore, *stubEnrollmentStore) {
	programs := &stubProgramStore{programs: map[string]*models.MentorshipProgram{
		"program-1": {ID: "program-1", ProviderID: "provider-1", Title: "Mixing bootcamp", Active: true},
		"program-2": {ID: "program-2", ProviderID: "provider-1", Title: "Retired", Active: false},
	}}
	enrollments := &stubEnrollmentStore{active: map[string]bool{}}
	users := &stubUserReader{users: map[string]*models.User{
		"client-1": {ID: "client-1", Role: models.RoleClient},
		"frozen-1": {ID: "frozen-1", Role: models.RoleClient, Frozen: true},
	}}
	return NewProgramService(programs, enrollments, users), programs, enrollments
}

func TestCreateProgramValidation(t *testing.T) {
	service, programs, _ := newProgramFixture()

	tests := []struct {
		name  string
		input repository.CreateMentorshipProgramInput
	}{
		{"empty title", repository.CreateMentorshipProgramInput{Title: "  ", PriceUSD: 100, DurationWeeks: 4}},
		{"zero price", repository.CreateMentorshipProgramInput{Title: "Vocal production", PriceUSD: 0, DurationWeeks: 4}},
		{"zero duration", repository.CreateMentorshipProgramInput{Title: "Vocal production", PriceUSD: 100, DurationWeeks: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.CreateProgram(context.Background(), "provider-1", tt.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
	if len(programs.created) != 0 {
		t.Fatalf("expected no programs created, got %d", len(programs.created))
	}

	program, err := service.CreateProgram(context.Background(), "provider-1", repository.CreateMentorshipProgramInput{
		Title: "Vocal production", PriceUSD: 250, DurationWeeks: 6,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if program.ProviderID != "provider-1" {
		t.Fatalf("expected provider-1 as owner, got %s", program.ProviderID)
	}
}

func TestEnroll(t *testing.T) {
	service, _, enrollments := newProgramFixture()

	enrollment, err := service.Enroll(context.Background(), "client-1", "program-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		t.Fatalf("expected active enrollment, got %s", enrollment.Status)
	}
	if len(enrollments.created) != 1 {
		t.Fatalf("expected one enrollment created, got %d", len(enrollments.created))
	}
}

func TestEnrollRejectsFrozenAccount(t *testing.T) {
	service, _, enrollments := newProgramFixture()

	if _, err := service.Enroll(context.Background(), "frozen-1", "program-1"); !errors.Is(err, ErrAccountFrozen) {
		t.Fatalf("expected ErrAccountFrozen, got %v", err)
	}
	if len(enrollments.created) != 0 {
		t.Fatalf("expected no enrollments created, got %d", len(enrollments.created))
	}
}

func TestEnrollRejectsInactiveProgram(t *testing.T) {
	service, _, _ := newProgramFixture()

	if _, err := service.Enroll(context.Background(), "client-1", "program-2"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	service, _, enrollments := newProgramFixture()
	enrollments.active["program-1:client-1"] = true

	if _, err := service.Enroll(context.Background(), "client-1", "program-1"); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
}

func TestDeactivateProgramOwnership(t *testing.T) {
	service, programs, _ := newProgramFixture()

	if err := service.DeactivateProgram(context.Background(), "provider-2", "program-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if !programs.programs["program-1"].Active {
		t.Fatalf("program should still be active")
	}

	if err := service.DeactivateProgram(context.Background(), "provider-1", "program-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if programs.programs["program-1"].Active {
		t.Fatalf("program should be inactive")
	}
}
