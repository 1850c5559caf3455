package main

import (
	"errors"
	"net/http"

	"lunchmap/internal/store"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *store.User {
	if user, ok := r.Context().Value(userCtx).(*store.User); ok {
		return user
	}
	return nil
}

type profileResponse struct {
	*store.User
	ReviewCount int `json:"review_count"`
}

// getProfileHandler returns the caller's own profile with their review
// count. The middleware already loaded the user for the token's subject.
func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.notFoundResponse(w, r, errors.New("user not found"))
		return
	}

	count, err := app.store.Reviews.CountByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, profileResponse{
		User:        user,
		ReviewCount: count,
	})
}

func (app *application) getMyReviewsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviews, err := app.store.Reviews.GetByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, reviews)
}
