package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

type CreateAbuseReviewInput struct {
	UserID      string
	Flags       []models.AbuseFlag
	TriggerType string
}

type AbuseReviewRepository struct {
	db DBTX
}

func NewAbuseReviewRepository(db DBTX) *AbuseReviewRepository {
	return &AbuseReviewRepository{db: db}
}

// Create appends a pending review record. Flag lists are append-only: scans
// never mutate earlier records, each run writes a fresh one.
func (r *AbuseReviewRepository) Create(ctx context.Context, input CreateAbuseReviewInput) (*models.AbuseReview, error) {
	encoded, err := json.Marshal(input.Flags)
	if err != nil {
		return nil, fmt.Errorf("encode abuse flags: %w", err)
	}

	query := `
		INSERT INTO abuse_reviews (id, user_id, flags, trigger_type, status)
		VALUES ($1, $2, $3, $4, 'pending_review')
		RETURNING id, user_id, flags, trigger_type, status, reviewer_id, resolution, created_at
	`
	return r.scanReview(r.db.QueryRow(ctx, query,
		uuid.New().String(),
		input.UserID,
		encoded,
		input.TriggerType,
	))
}

func (r *AbuseReviewRepository) GetByID(ctx context.Context, id string) (*models.AbuseReview, error) {
	query := `
		SELECT id, user_id, flags, trigger_type, status, reviewer_id, resolution, created_at
		FROM abuse_reviews
		WHERE id = $1
	`
	return r.scanReview(r.db.QueryRow(ctx, query, id))
}

func (r *AbuseReviewRepository) ListPending(ctx context.Context, limit, offset int) ([]models.AbuseReview, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM abuse_reviews WHERE status = 'pending_review'`
	if err := r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, user_id, flags, trigger_type, status, reviewer_id, resolution, created_at
		FROM abuse_reviews
		WHERE status = 'pending_review'
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews := make([]models.AbuseReview, 0)
	for rows.Next() {
		review, err := r.scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Resolve closes a pending record. The status guard keeps two admins from
// racing on the same record.
func (r *AbuseReviewRepository) Resolve(ctx context.Context, id string, reviewerID string, resolution string) (*models.AbuseReview, error) {
	query := `
		UPDATE abuse_reviews
		SET status = 'resolved', reviewer_id = $2, resolution = $3
		WHERE id = $1 AND status = 'pending_review'
		RETURNING id, user_id, flags, trigger_type, status, reviewer_id, resolution, created_at
	`
	return r.scanReview(r.db.QueryRow(ctx, query, id, reviewerID, resolution))
}

func (r *AbuseReviewRepository) scanReview(row interface{ Scan(dest ...any) error }) (*models.AbuseReview, error) {
	var review models.AbuseReview
	var encoded []byte
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&encoded,
		&review.TriggerType,
		&review.Status,
		&review.ReviewerID,
		&review.Resolution,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(encoded) > 0 {
		if err := json.Unmarshal(encoded, &review.Flags); err != nil {
			return nil, fmt.Errorf("decode abuse flags: %w", err)
		}
	}
	return &review, nil
}
