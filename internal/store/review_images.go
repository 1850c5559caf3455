package store

import (
	"context"
	"database/sql"
	"time"
)

type ReviewImage struct {
	ID        int64     `json:"id,omitempty"`
	ReviewID  int64     `json:"review_id,omitempty"`
	ImageURL  string    `json:"image_url"`
	Filename  string    `json:"filename,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type ReviewImagesStore struct {
	db *sql.DB
}

func (s *ReviewImagesStore) Create(ctx context.Context, image *ReviewImage) error {
	query := `
        INSERT INTO review_images (review_id, image_url, filename)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRowContext(ctx, query,
		image.ReviewID,
		image.ImageURL,
		image.Filename,
	).Scan(&image.ID, &image.CreatedAt)
}

func (s *ReviewImagesStore) CountByReview(ctx context.Context, reviewID int64) (int, error) {
	query := `SELECT COUNT(id) FROM review_images WHERE review_id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx, query, reviewID).Scan(&count)
	return count, err
}

// ListURLsByReview is used on review delete to clean up the stored
// objects after the metadata rows cascade away.
func (s *ReviewImagesStore) ListURLsByReview(ctx context.Context, reviewID int64) ([]string, error) {
	query := `SELECT image_url FROM review_images WHERE review_id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
