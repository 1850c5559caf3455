package uploads

import (
	"context"
	"io"
)

// Uploader is the object-store surface the API needs: write bytes under a
// key and get back a public locator, and delete by that locator. Handlers
// depend on this interface so tests can substitute a fake.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}
