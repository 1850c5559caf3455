package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

type Review struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	PlaceID   string     `json:"place_id"`
	Rating    int        `json:"rating"` // 1-5
	Comment   NullString `json:"comment"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Joined fields
	UserName  string        `json:"user_name,omitempty"`
	AvatarURL string        `json:"avatar_url,omitempty"`
	Images    []ReviewImage `json:"images"`
}

type ReviewsStore struct {
	db *sql.DB
}

// Create inserts the review and relies on the unique(user_id, place_id)
// constraint as the final arbiter against concurrent duplicates. The
// pre-check in HasReview is optimistic only.
func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	query := `
        INSERT INTO reviews (user_id, place_id, rating, comment)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query,
		review.UserID,
		review.PlaceID,
		review.Rating,
		sql.NullString{String: review.Comment.Value, Valid: review.Comment.Valid},
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	review.Images = []ReviewImage{}
	return nil
}

func (s *ReviewsStore) GetByID(ctx context.Context, reviewID int64) (*Review, error) {
	query := `
        SELECT id, user_id, place_id, rating, comment, created_at, updated_at
        FROM reviews
        WHERE id = $1
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var review Review
	var comment sql.NullString
	err := s.db.QueryRowContext(ctx, query, reviewID).Scan(
		&review.ID,
		&review.UserID,
		&review.PlaceID,
		&review.Rating,
		&comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	review.Comment = NewNullString(comment)
	return &review, nil
}

// GetByPlace returns all reviews for a place, newest first, each joined
// with the author's public fields and its image URLs. Images are
// aggregated in SQL so a review with several images still yields one row.
func (s *ReviewsStore) GetByPlace(ctx context.Context, placeID string) ([]Review, error) {
	query := `
        SELECT r.id, r.user_id, r.place_id, r.rating, r.comment,
               r.created_at, r.updated_at, u.name, u.avatar_url,
               COALESCE(array_agg(ri.image_url ORDER BY ri.created_at)
                        FILTER (WHERE ri.id IS NOT NULL), '{}')
        FROM reviews r
        JOIN users u ON u.id = r.user_id
        LEFT JOIN review_images ri ON ri.review_id = r.id
        WHERE r.place_id = $1
        GROUP BY r.id, u.name, u.avatar_url
        ORDER BY r.created_at DESC
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, placeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var review Review
		var comment sql.NullString
		var urls pq.StringArray
		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.PlaceID,
			&review.Rating,
			&comment,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.UserName,
			&review.AvatarURL,
			&urls,
		)
		if err != nil {
			return nil, err
		}
		review.Comment = NewNullString(comment)
		review.Images = make([]ReviewImage, 0, len(urls))
		for _, u := range urls {
			review.Images = append(review.Images, ReviewImage{ImageURL: u})
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// GetByUser returns the caller's reviews, newest first, with images. The
// LEFT JOIN yields one row per (review, image) pair, so rows are grouped
// back into one entry per review here.
func (s *ReviewsStore) GetByUser(ctx context.Context, userID int64) ([]Review, error) {
	query := `
        SELECT r.id, r.user_id, r.place_id, r.rating, r.comment,
               r.created_at, r.updated_at, ri.image_url
        FROM reviews r
        LEFT JOIN review_images ri ON ri.review_id = r.id
        WHERE r.user_id = $1
        ORDER BY r.created_at DESC, ri.created_at
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []Review{}
	index := map[int64]int{}
	for rows.Next() {
		var review Review
		var comment sql.NullString
		var imageURL sql.NullString
		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.PlaceID,
			&review.Rating,
			&comment,
			&review.CreatedAt,
			&review.UpdatedAt,
			&imageURL,
		)
		if err != nil {
			return nil, err
		}

		i, seen := index[review.ID]
		if !seen {
			review.Comment = NewNullString(comment)
			review.Images = []ReviewImage{}
			reviews = append(reviews, review)
			i = len(reviews) - 1
			index[review.ID] = i
		}
		if imageURL.Valid {
			reviews[i].Images = append(reviews[i].Images, ReviewImage{ImageURL: imageURL.String})
		}
	}
	return reviews, rows.Err()
}

// HasReview returns true if a review by this user on this place already exists.
func (s *ReviewsStore) HasReview(ctx context.Context, userID int64, placeID string) (bool, error) {
	query := `
        SELECT EXISTS (
          SELECT 1 FROM reviews
          WHERE user_id = $1 AND place_id = $2
        )
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx, query, userID, placeID).Scan(&exists)
	return exists, err
}

// Update overwrites rating and comment only. Place and owner are
// immutable after creation.
func (s *ReviewsStore) Update(ctx context.Context, review *Review) error {
	query := `
        UPDATE reviews
        SET rating = $1, comment = $2, updated_at = now()
        WHERE id = $3
        RETURNING updated_at
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query,
		review.Rating,
		sql.NullString{String: review.Comment.Value, Valid: review.Comment.Valid},
		review.ID,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes the review row. Image metadata rows go with it through
// the ON DELETE CASCADE foreign key; the stored objects are the caller's
// responsibility.
func (s *ReviewsStore) Delete(ctx context.Context, reviewID int64) error {
	query := `DELETE FROM reviews WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, reviewID)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ReviewsStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(id) FROM reviews WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}
