package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/aydin-k/StudioSplitBack/internal/models"
)

type CreateReviewInput struct {
	ProviderID string
	AuthorID   string
	Rating     int
	Comment    *string
}

type ReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, input CreateReviewInput) (*models.Review, error) {
	query := `
		INSERT INTO reviews (id, provider_id, author_id, rating, comment, visible)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, provider_id, author_id, rating, comment, visible, created_at
	`
	var review models.Review
	err := r.db.QueryRow(ctx, query,
		uuid.New().String(),
		input.ProviderID,
		input.AuthorID,
		input.Rating,
		input.Comment,
	).Scan(
		&review.ID,
		&review.ProviderID,
		&review.AuthorID,
		&review.Rating,
		&review.Comment,
		&review.Visible,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// RecentVisible returns the newest visible reviews for a provider, newest
// first, with each author's account creation time joined in for the abuse
// scanner.
func (r *ReviewRepository) RecentVisible(ctx context.Context, providerID string, limit int) ([]models.ReviewWithAuthor, error) {
	query := `
		SELECT rv.id, rv.provider_id, rv.author_id, rv.rating, rv.comment, rv.visible, rv.created_at,
			u.created_at
		FROM reviews rv
		JOIN users u ON u.id = rv.author_id
		WHERE rv.provider_id = $1 AND rv.visible = TRUE
		ORDER BY rv.created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]models.ReviewWithAuthor, 0, limit)
	for rows.Next() {
		var review models.ReviewWithAuthor
		if err := rows.Scan(
			&review.ID,
			&review.ProviderID,
			&review.AuthorID,
			&review.Rating,
			&review.Comment,
			&review.Visible,
			&review.CreatedAt,
			&review.AuthorCreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *ReviewRepository) ListForProvider(ctx context.Context, providerID string, limit, offset int) ([]models.Review, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM reviews WHERE provider_id = $1 AND visible = TRUE`
	if err := r.db.QueryRow(ctx, countQuery, providerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, provider_id, author_id, rating, comment, visible, created_at
		FROM reviews
		WHERE provider_id = $1 AND visible = TRUE
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, providerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID,
			&review.ProviderID,
			&review.AuthorID,
			&review.Rating,
			&review.Comment,
			&review.Visible,
			&review.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *ReviewRepository) SetVisibility(ctx context.Context, reviewID string, visible bool) error {
	query := `UPDATE reviews SET visible = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, reviewID, visible)
	return err
}
