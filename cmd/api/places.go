package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const defaultSearchRadius = 1000 // meters

// nearbyPlacesHandler proxies restaurant search to the external places
// API. Query coercion happens here at the boundary; the response body is
// passed through unmodified.
func (app *application) nearbyPlacesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid query parameter lat"))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid query parameter lng"))
		return
	}

	radius := defaultSearchRadius
	if raw := q.Get("radius"); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid query parameter radius"))
			return
		}
	}

	openNow := q.Get("open_now") == "true"

	resp, err := app.places.NearbySearch(r.Context(), lat, lng, radius, openNow)
	if err != nil {
		app.upstreamFailureResponse(w, r, err)
		return
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		app.upstreamFailureResponse(w, r, errors.New("places upstream status "+resp.Status))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (app *application) placeDetailsHandler(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")

	resp, err := app.places.Details(r.Context(), placeID)
	if err != nil {
		app.upstreamFailureResponse(w, r, err)
		return
	}
	if resp.Status != "OK" {
		app.notFoundResponse(w, r, errors.New("place not found"))
		return
	}

	writeJSON(w, http.StatusOK, resp.Result)
}
