package main

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"lunchmap/internal/store"

	"github.com/go-chi/chi/v5"
)

type createReviewPayload struct {
	PlaceID string `json:"place_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

type updateReviewPayload struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Optimistic pre-check; the unique constraint settles races.
	exists, err := app.store.Reviews.HasReview(r.Context(), user.ID, payload.PlaceID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if exists {
		app.conflictResponse(w, r, errors.New("review already exists for this place"))
		return
	}

	review := &store.Review{
		UserID:  user.ID,
		PlaceID: payload.PlaceID,
		Rating:  payload.Rating,
		Comment: store.NewNullString(sql.NullString{String: payload.Comment, Valid: payload.Comment != ""}),
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		if errors.Is(err, store.ErrConflict) {
			app.conflictResponse(w, r, errors.New("review already exists for this place"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, review)
}

func (app *application) getPlaceReviewsHandler(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")

	reviews, err := app.store.Reviews.GetByPlace(r.Context(), placeID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, reviews)
}

func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	rID, err := parseReviewID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload updateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.fetchOwnedReview(r, rID)
	if err != nil {
		app.reviewAccessError(w, r, err)
		return
	}

	review.Rating = payload.Rating
	review.Comment = store.NewNullString(sql.NullString{String: payload.Comment, Valid: payload.Comment != ""})

	if err := app.store.Reviews.Update(r.Context(), review); err != nil {
		app.reviewAccessError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	rID, err := parseReviewID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.fetchOwnedReview(r, rID); err != nil {
		app.reviewAccessError(w, r, err)
		return
	}

	// Grab the object locators before the metadata rows cascade away.
	urls, err := app.store.ReviewImages.ListURLsByReview(r.Context(), rID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), rID); err != nil {
		app.reviewAccessError(w, r, err)
		return
	}

	// Best effort: a stored object we fail to remove is an orphan, not a
	// failed delete.
	for _, url := range urls {
		if err := app.uploader.Delete(r.Context(), url); err != nil {
			app.logger.Warnw("failed to delete review image object", "review_id", rID, "url", url, "error", err)
		}
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

// fetchOwnedReview is the single ownership predicate: load the review and
// compare its owner against the authenticated caller. All review
// mutations (update, delete, image attach) go through it.
func (app *application) fetchOwnedReview(r *http.Request, reviewID int64) (*store.Review, error) {
	user := getUserFromContext(r)

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != user.ID {
		return nil, store.ErrForbidden
	}
	return review, nil
}

func parseReviewID(r *http.Request) (int64, error) {
	rID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid review ID")
	}
	return rID, nil
}
