package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"lunchmap/internal/auth"
	"lunchmap/internal/ratelimiter"
	"lunchmap/internal/store"

	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newTestApplication(t *testing.T) (*application, *fixtures) {
	t.Helper()

	images := &fakeReviewImagesStore{images: map[int64][]store.ReviewImage{}}
	reviews := &fakeReviewsStore{reviews: map[int64]*store.Review{}, images: images}
	users := &fakeUsersStore{users: map[int64]*store.User{}}
	uploader := &fakeUploader{}

	app := &application{
		config: config{
			env: "test",
			rateLimiter: ratelimiter.Config{
				Enabled: false,
			},
		},
		logger: zap.NewNop().Sugar(),
		store: store.Storage{
			Users:        users,
			Reviews:      reviews,
			ReviewImages: images,
		},
		uploader:      uploader,
		authenticator: auth.NewJWTAuthenticator(testSecret, time.Hour, "lunchmap", "lunchmap"),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, time.Second),
	}

	return app, &fixtures{users: users, reviews: reviews, images: images, uploader: uploader}
}

type fixtures struct {
	users    *fakeUsersStore
	reviews  *fakeReviewsStore
	images   *fakeReviewImagesStore
	uploader *fakeUploader
}

func (f *fixtures) seedUser(id int64, name string) *store.User {
	user := &store.User{
		ID:        id,
		GoogleID:  fmt.Sprintf("google-%d", id),
		Email:     fmt.Sprintf("%s@example.com", name),
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.users.users[id] = user
	return user
}

func (f *fixtures) seedReview(id, userID int64, placeID string, rating int) *store.Review {
	review := &store.Review{
		ID:        id,
		UserID:    userID,
		PlaceID:   placeID,
		Rating:    rating,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Images:    []store.ReviewImage{},
	}
	f.reviews.reviews[id] = review
	if id >= f.reviews.nextID {
		f.reviews.nextID = id + 1
	}
	return review
}

func bearerToken(t *testing.T, app *application, user *store.User) string {
	t.Helper()
	token, err := app.authenticator.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func executeRequest(app *application, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.mount().ServeHTTP(rr, req)
	return rr
}

// ---- fakes ----

type fakeUsersStore struct {
	mu    sync.Mutex
	users map[int64]*store.User
}

func (f *fakeUsersStore) Upsert(_ context.Context, user *store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.GoogleID == user.GoogleID {
			user.ID = u.ID
			user.CreatedAt = u.CreatedAt
			user.UpdatedAt = time.Now()
			f.users[u.ID] = user
			return nil
		}
	}
	user.ID = int64(len(f.users) + 1)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsersStore) GetByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

type fakeReviewsStore struct {
	mu      sync.Mutex
	reviews map[int64]*store.Review
	images  *fakeReviewImagesStore
	nextID  int64
}

func (f *fakeReviewsStore) Create(_ context.Context, review *store.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reviews {
		if existing.UserID == review.UserID && existing.PlaceID == review.PlaceID {
			return store.ErrConflict
		}
	}
	if f.nextID == 0 {
		f.nextID = 1
	}
	review.ID = f.nextID
	f.nextID++
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	review.Images = []store.ReviewImage{}
	copied := *review
	f.reviews[review.ID] = &copied
	return nil
}

func (f *fakeReviewsStore) GetByID(_ context.Context, id int64) (*store.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *review
	return &copied, nil
}

func (f *fakeReviewsStore) GetByPlace(_ context.Context, placeID string) ([]store.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []store.Review{}
	for _, review := range f.reviews {
		if review.PlaceID != placeID {
			continue
		}
		copied := *review
		copied.Images = f.images.imagesFor(review.ID)
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (f *fakeReviewsStore) GetByUser(_ context.Context, userID int64) ([]store.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []store.Review{}
	for _, review := range f.reviews {
		if review.UserID != userID {
			continue
		}
		copied := *review
		copied.Images = f.images.imagesFor(review.ID)
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (f *fakeReviewsStore) HasReview(_ context.Context, userID int64, placeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, review := range f.reviews {
		if review.UserID == userID && review.PlaceID == placeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviewsStore) Update(_ context.Context, review *store.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.reviews[review.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Rating = review.Rating
	existing.Comment = review.Comment
	existing.UpdatedAt = time.Now()
	review.UpdatedAt = existing.UpdatedAt
	return nil
}

func (f *fakeReviewsStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.reviews, id)
	delete(f.images.images, id)
	return nil
}

func (f *fakeReviewsStore) CountByUser(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, review := range f.reviews {
		if review.UserID == userID {
			count++
		}
	}
	return count, nil
}

type fakeReviewImagesStore struct {
	mu     sync.Mutex
	images map[int64][]store.ReviewImage
	nextID int64
}

func (f *fakeReviewImagesStore) Create(_ context.Context, image *store.ReviewImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	image.ID = f.nextID
	image.CreatedAt = time.Now()
	f.images[image.ReviewID] = append(f.images[image.ReviewID], *image)
	return nil
}

func (f *fakeReviewImagesStore) CountByReview(_ context.Context, reviewID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.images[reviewID]), nil
}

func (f *fakeReviewImagesStore) ListURLsByReview(_ context.Context, reviewID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var urls []string
	for _, image := range f.images[reviewID] {
		urls = append(urls, image.ImageURL)
	}
	return urls, nil
}

func (f *fakeReviewImagesStore) imagesFor(reviewID int64) []store.ReviewImage {
	images := f.images[reviewID]
	out := make([]store.ReviewImage, len(images))
	copy(out, images)
	return out
}

func (f *fakeReviewImagesStore) seed(reviewID int64, urls ...string) {
	for _, u := range urls {
		f.nextID++
		f.images[reviewID] = append(f.images[reviewID], store.ReviewImage{
			ID:       f.nextID,
			ReviewID: reviewID,
			ImageURL: u,
			Filename: "seed.jpg",
		})
	}
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	failNext bool
}

func (f *fakeUploader) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return "", fmt.Errorf("upload failed")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	url := "https://cdn.example.com/" + key
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeUploader) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}
