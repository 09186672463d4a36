package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

type CreateMentorshipProgramInput struct {
	ProviderID    string
	Title         string
	Description   *string
	PriceUSD      float64
	DurationWeeks int
	SyllabusURL   *string
}

const mentorshipProgramColumns = `id, provider_id, title, description, price_usd, duration_weeks,
	syllabus_url, active, created_at, updated_at`

type MentorshipProgramRepository struct {
	db DBTX
}

func NewMentorshipProgramRepository(db DBTX) *MentorshipProgramRepository {
	return &MentorshipProgramRepository{db: db}
}

func (r *MentorshipProgramRepository) scanProgram(row interface{ Scan(dest ...any) error }) (*models.MentorshipProgram, error) {
	var program models.MentorshipProgram
	err := row.Scan(
		&program.ID,
		&program.ProviderID,
		&program.Title,
		&program.Description,
		&program.PriceUSD,
		&program.DurationWeeks,
		&program.SyllabusURL,
		&program.Active,
		&program.CreatedAt,
		&program.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *MentorshipProgramRepository) Create(
	ctx context.Context,
	input CreateMentorshipProgramInput,
) (*models.MentorshipProgram, error) {
	query := `
		INSERT INTO mentorship_programs (id, provider_id, title, description, price_usd, duration_weeks, syllabus_url, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING ` + mentorshipProgramColumns + `
	`
	return r.scanProgram(r.db.QueryRow(ctx, query,
		uuid.New().String(),
		input.ProviderID,
		input.Title,
		input.Description,
		input.PriceUSD,
		input.DurationWeeks,
		input.SyllabusURL,
	))
}

func (r *MentorshipProgramRepository) GetByID(ctx context.Context, programID string) (*models.MentorshipProgram, error) {
	query := `SELECT ` + mentorshipProgramColumns + ` FROM mentorship_programs WHERE id = $1`
	return r.scanProgram(r.db.QueryRow(ctx, query, programID))
}

func (r *MentorshipProgramRepository) ListByProviderID(ctx context.Context, providerID string) ([]models.MentorshipProgram, error) {
	query := `
		SELECT ` + mentorshipProgramColumns + `
		FROM mentorship_programs
		WHERE provider_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, providerID)
}

func (r *MentorshipProgramRepository) ListActive(ctx context.Context) ([]models.MentorshipProgram, error) {
	query := `
		SELECT ` + mentorshipProgramColumns + `
		FROM mentorship_programs
		WHERE active = TRUE
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query)
}

func (r *MentorshipProgramRepository) Deactivate(ctx context.Context, programID, providerID string) error {
	query := `
		UPDATE mentorship_programs
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1 AND provider_id = $2
	`
	_, err := r.db.Exec(ctx, query, programID, providerID)
	return err
}

func (r *MentorshipProgramRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]models.MentorshipProgram, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	programs := make([]models.MentorshipProgram, 0)
	for rows.Next() {
		program, err := r.scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, *program)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return programs, nil
}

type EnrollmentRepository struct {
	db DBTX
}

func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Create(ctx context.Context, programID, clientID string) (*models.MentorshipEnrollment, error) {
	query := `
		INSERT INTO mentorship_enrollments (id, program_id, client_id, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, program_id, client_id, status, created_at
	`
	var enrollment models.MentorshipEnrollment
	err := r.db.QueryRow(ctx, query, uuid.New().String(), programID, clientID).Scan(
		&enrollment.ID,
		&enrollment.ProgramID,
		&enrollment.ClientID,
		&enrollment.Status,
		&enrollment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) ListByClientID(ctx context.Context, clientID string) ([]models.MentorshipEnrollment, error) {
	query := `
		SELECT id, program_id, client_id, status, created_at
		FROM mentorship_enrollments
		WHERE client_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := make([]models.MentorshipEnrollment, 0)
	for rows.Next() {
		var enrollment models.MentorshipEnrollment
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.ProgramID,
			&enrollment.ClientID,
			&enrollment.Status,
			&enrollment.CreatedAt,
		); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *EnrollmentRepository) HasActiveEnrollment(ctx context.Context, programID, clientID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM mentorship_enrollments
			WHERE program_id = $1 AND client_id = $2 AND status = 'active'
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, programID, clientID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
