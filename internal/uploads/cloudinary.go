package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cloudinaryURL string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// Upload stores the file under a custom public ID derived from the key.
// Cloudinary detects the content type from the bytes, so the declared
// type is validated upstream but not forwarded here.
func (u *CloudinaryUploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:  strings.TrimSuffix(key, extSuffix(key)),
		Overwrite: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

func (u *CloudinaryUploader) Delete(ctx context.Context, photoURL string) error {
	publicID, err := extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = u.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from cloudinary: %w", err)
	}

	return nil
}

func extSuffix(key string) string {
	if i := strings.LastIndex(key, "."); i > strings.LastIndex(key, "/") {
		return key[i:]
	}
	return ""
}

// extractPublicIDFromURL recovers the public ID from a delivery URL: the
// path after "upload/v<version>/", minus the file extension.
func extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part == "upload" && i+2 < len(pathParts) {
			publicID := strings.Join(pathParts[i+2:], "/")
			return strings.TrimSuffix(publicID, extSuffix(publicID)), nil
		}
	}

	return "", errors.New("failed to extract public ID from URL")
}
