package repository

import (
	"context"

	"github.com/mvogel/vogelwedding/internal/model"
)

// ContentRepository provides read access to static page content.
type ContentRepository interface {
	// SectionImages returns the illustrations of one page ("about", "information").
	SectionImages(ctx context.Context, page string) ([]model.SectionImage, error)
	// Invoice returns the latest invoice document, or errs.ErrNotFound.
	Invoice(ctx context.Context) (*model.Invoice, error)
}
