package main

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"lunchmap/internal/store"

	"github.com/google/uuid"
)

const (
	maxImageBytes      = 5 << 20 // 5 MiB per file
	maxFormBytes       = 8 << 20 // multipart parse ceiling, above the per-file cap
	maxImagesPerReview = 5
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func (app *application) uploadReviewImageHandler(w http.ResponseWriter, r *http.Request) {
	rID, err := parseReviewID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.fetchOwnedReview(r, rID)
	if err != nil {
		app.reviewAccessError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	file, fileHeader, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("no image file provided"))
		return
	}
	defer file.Close()

	if fileHeader.Size > maxImageBytes {
		app.payloadTooLargeResponse(w, r, errors.New("file size too large (max 5MB)"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		app.unsupportedMediaTypeResponse(w, r, fmt.Errorf("invalid file type %q", contentType))
		return
	}

	count, err := app.store.ReviewImages.CountByReview(r.Context(), review.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if count >= maxImagesPerReview {
		app.limitExceededResponse(w, r, fmt.Errorf("maximum %d images per review", maxImagesPerReview))
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	key := fmt.Sprintf("review-images/%d/%s.%s", review.ID, uuid.New().String(), ext)

	imageURL, err := app.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	image := &store.ReviewImage{
		ReviewID: review.ID,
		ImageURL: imageURL,
		Filename: fileHeader.Filename,
	}
	if err := app.store.ReviewImages.Create(r.Context(), image); err != nil {
		// The object is already written; the row insert failing leaves an
		// orphan in the object store. Log it and surface the failure.
		app.logger.Warnw("orphaned review image object", "review_id", review.ID, "key", key, "error", err)
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, image)
}
