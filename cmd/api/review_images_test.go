package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageUploadRequest(t *testing.T, target, token, filename, contentType string, size int) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)

	_, err = part.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func TestUploadReviewImage(t *testing.T) {
	app, fx := newTestApplication(t)
	owner := fx.seedUser(1, "alice")
	fx.seedReview(10, owner.ID, "p1", 4)
	token := bearerToken(t, app, owner)

	req := imageUploadRequest(t, "/v1/reviews/10/images", token, "lunch.png", "image/png", 1024)
	resp := executeRequest(app, req).Result()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data struct {
			ID       int64  `json:"id"`
			ReviewID int64  `json:"review_id"`
			ImageURL string `json:"image_url"`
			Filename string `json:"filename"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, int64(10), created.Data.ReviewID)
	assert.Equal(t, "lunch.png", created.Data.Filename)
	assert.True(t, strings.Contains(created.Data.ImageURL, "review-images/10/"))
	assert.True(t, strings.HasSuffix(created.Data.ImageURL, ".png"))

	require.Len(t, fx.uploader.uploaded, 1)
}

func TestUploadReviewImageTooLarge(t *testing.T) {
	app, fx := newTestApplication(t)
	owner := fx.seedUser(1, "alice")
	fx.seedReview(10, owner.ID, "p1", 4)
	token := bearerToken(t, app, owner)

	req := imageUploadRequest(t, "/v1/reviews/10/images", token, "big.jpg", "image/jpeg", 6<<20)
	resp := executeRequest(app, req).Result()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	// Nothing was uploaded or recorded.
	assert.Empty(t, fx.uploader.uploaded)
	assert.Empty(t, fx.images.images[10])
}

func TestUploadReviewImageBadType(t *testing.T) {
	app, fx := newTestApplication(t)
	owner := fx.seedUser(1, "alice")
	fx.seedReview(10, owner.ID, "p1", 4)
	token := bearerToken(t, app, owner)

	req := imageUploadRequest(t, "/v1/reviews/10/images", token, "notes.txt", "text/plain", 128)
	resp := executeRequest(app, req).Result()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Empty(t, fx.uploader.uploaded)
}

func TestUploadReviewImageMissingFile(t *testing.T) {
	app, fx := newTestApplication(t)
	owner := fx.seedUser(1, "alice")
	fx.seedReview(10, owner.ID, "p1", 4)
	token := bearerToken(t, app, owner)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("caption", "no image here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/reviews/10/images", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", token)

	resp := executeRequest(app, req).Result()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadReviewImageLimit(t *testing.T) {
	app, fx := newTestApplication(t)
	owner := fx.seedUser(1, "alice")
	fx.seedReview(10, owner.ID, "p1", 4)
	fx.images.seed(10, "u1", "u2", "u3", "u4", "u5")
	token := bearerToken(t, app, owner)

	req := imageUploadRequest(t, "/v1/reviews/10/images", token, "one-too-many.jpg", "image/jpeg", 128)
	resp := executeRequest(app, req).Result()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, fx.uploader.uploaded)
}

func TestUploadReviewImageOwnership(t *testing.T) {
	app, fx := newTestApplication(t)
	owner := fx.seedUser(1, "alice")
	other := fx.seedUser(2, "bob")
	fx.seedReview(10, owner.ID, "p1", 4)

	req := imageUploadRequest(t, "/v1/reviews/10/images", bearerToken(t, app, other), "sneaky.png", "image/png", 128)
	resp := executeRequest(app, req).Result()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = imageUploadRequest(t, "/v1/reviews/999/images", bearerToken(t, app, other), "lost.png", "image/png", 128)
	resp = executeRequest(app, req).Result()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadReviewImageFallbackExtension(t *testing.T) {
	app, fx := newTestApplication(t)
	owner := fx.seedUser(1, "alice")
	fx.seedReview(10, owner.ID, "p1", 4)
	token := bearerToken(t, app, owner)

	req := imageUploadRequest(t, "/v1/reviews/10/images", token, "noextension", "image/jpeg", 128)
	resp := executeRequest(app, req).Result()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, fx.uploader.uploaded, 1)
	assert.True(t, strings.HasSuffix(fx.uploader.uploaded[0], ".jpg"))
}
