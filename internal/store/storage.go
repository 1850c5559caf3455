package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	ErrForbidden         = errors.New("not the resource owner")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Upsert(context.Context, *User) error
		GetByID(context.Context, int64) (*User, error)
	}
	Reviews interface {
		Create(context.Context, *Review) error
		GetByID(context.Context, int64) (*Review, error)
		GetByPlace(context.Context, string) ([]Review, error)
		GetByUser(context.Context, int64) ([]Review, error)
		HasReview(context.Context, int64, string) (bool, error)
		Update(context.Context, *Review) error
		Delete(context.Context, int64) error
		CountByUser(context.Context, int64) (int, error)
	}
	ReviewImages interface {
		Create(context.Context, *ReviewImage) error
		CountByReview(context.Context, int64) (int, error)
		ListURLsByReview(context.Context, int64) ([]string, error)
	}
}

func NewStorage(db *sql.DB) Storage {
	return Storage{
		Users:        &UsersStore{db},
		Reviews:      &ReviewsStore{db},
		ReviewImages: &ReviewImagesStore{db},
	}
}
