package service

import (
	"context"
	"io"
)

// PosterStore manages poster assets for catalog items. Delivery copies the
// provider's posters into the operator's own folder so the mirror does not
// depend on provider assets staying online.
type PosterStore interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	// Copy duplicates an existing asset into the target folder and returns
	// the new URL.
	Copy(ctx context.Context, sourceURL string, folder string, publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
}
