package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopscript/apiserver/types"
)

// ReviewRepository handles persistence for product reviews.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review types.Review) (types.Review, error) {
	review.CreatedAt = time.Now()

	const query = `
		INSERT INTO reviews (product_id, user_id, rating, comment, is_approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.Approved,
		review.CreatedAt,
	).Scan(&review.ID); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Get(ctx context.Context, id int) (types.Review, error) {
	reviews, err := r.query(ctx, `WHERE r.id = $1`, id)
	if err != nil {
		return types.Review{}, err
	}
	if len(reviews) == 0 {
		return types.Review{}, ErrNotFound
	}
	return reviews[0], nil
}

// ListApprovedByProduct returns the reviews visible on a product page.
func (r *ReviewRepository) ListApprovedByProduct(ctx context.Context, productID int) ([]types.Review, error) {
	return r.query(ctx, `WHERE r.product_id = $1 AND r.is_approved`, productID)
}

// ListPending returns reviews awaiting moderation.
func (r *ReviewRepository) ListPending(ctx context.Context) ([]types.Review, error) {
	return r.query(ctx, `WHERE NOT r.is_approved`)
}

func (r *ReviewRepository) SetApproval(ctx context.Context, id int, approved bool) (types.Review, error) {
	const query = `UPDATE reviews SET is_approved = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, approved, id)
	if err != nil {
		return types.Review{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Review{}, err
	}
	if affected == 0 {
		return types.Review{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *ReviewRepository) query(ctx context.Context, where string, args ...any) ([]types.Review, error) {
	query := `
		SELECT r.id, r.product_id, r.user_id, u.username, r.rating, r.comment, r.is_approved, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		` + where + `
		ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]types.Review, 0)
	for rows.Next() {
		var review types.Review
		if err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.Username,
			&review.Rating,
			&review.Comment,
			&review.Approved,
			&review.CreatedAt,
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
