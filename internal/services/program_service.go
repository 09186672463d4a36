package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
)

var ErrAlreadyEnrolled = errors.New("already enrolled")

type programStore interface {
	Create(ctx context.Context, input repository.CreateMentorshipProgramInput) (*models.MentorshipProgram, error)
	GetByID(ctx context.Context, programID string) (*models.MentorshipProgram, error)
	ListByProviderID(ctx context.Context, providerID string) ([]models.MentorshipProgram, error)
	ListActive(ctx context.Context) ([]models.MentorshipProgram, error)
	Deactivate(ctx context.Context, programID, providerID string) error
}

type enrollmentStore interface {
	Create(ctx context.Context, programID, clientID string) (*models.MentorshipEnrollment, error)
	ListByClientID(ctx context.Context, clientID string) ([]models.MentorshipEnrollment, error)
	HasActiveEnrollment(ctx context.Context, programID, clientID string) (bool, error)
}

// ProgramService manages mentorship programs providers offer alongside studio
// time, and client enrollment into them.
type ProgramService struct {
	programs    programStore
	enrollments enrollmentStore
	users       userReader
}

func NewProgramService(programs programStore, enrollments enrollmentStore, users userReader) *ProgramService {
	return &ProgramService{programs: programs, enrollments: enrollments, users: users}
}

func (s *ProgramService) CreateProgram(
	ctx context.Context,
	providerID string,
	input repository.CreateMentorshipProgramInput,
) (*models.MentorshipProgram, error) {
	input.ProviderID = providerID
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" || input.PriceUSD <= 0 || input.DurationWeeks <= 0 {
		return nil, ErrInvalidInput
	}
	return s.programs.Create(ctx, input)
}

func (s *ProgramService) GetProgram(ctx context.Context, programID string) (*models.MentorshipProgram, error) {
	return s.programs.GetByID(ctx, programID)
}

func (s *ProgramService) ListActivePrograms(ctx context.Context) ([]models.MentorshipProgram, error) {
	return s.programs.ListActive(ctx)
}

func (s *ProgramService) ListProviderPrograms(ctx context.Context, providerID string) ([]models.MentorshipProgram, error) {
	return s.programs.ListByProviderID(ctx, providerID)
}

func (s *ProgramService) DeactivateProgram(ctx context.Context, providerID, programID string) error {
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return err
	}
	if program.ProviderID != providerID {
		return ErrForbidden
	}
	return s.programs.Deactivate(ctx, programID, providerID)
}

// Enroll adds a client to an active program. Frozen accounts cannot enroll,
// and a client holds at most one active enrollment per program.
func (s *ProgramService) Enroll(ctx context.Context, clientID, programID string) (*models.MentorshipEnrollment, error) {
	client, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Frozen {
		return nil, ErrAccountFrozen
	}

	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	if !program.Active {
		return nil, ErrInvalidStateTransition
	}
	if program.ProviderID == clientID {
		return nil, ErrForbidden
	}

	enrolled, err := s.enrollments.HasActiveEnrollment(ctx, programID, clientID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	return s.enrollments.Create(ctx, programID, clientID)
}

func (s *ProgramService) ListEnrollments(ctx context.Context, clientID string) ([]models.MentorshipEnrollment, error) {
	return s.enrollments.ListByClientID(ctx, clientID)
}
