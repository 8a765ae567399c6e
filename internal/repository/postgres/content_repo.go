package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mvogel/vogelwedding/internal/errs"
	"github.com/mvogel/vogelwedding/internal/model"
)

// ContentRepo implements ContentRepository using PostgreSQL.
type ContentRepo struct{ db *DB }

// NewContentRepo constructs a content repository.
func NewContentRepo(db *DB) *ContentRepo { return &ContentRepo{db: db} }

// SectionImages returns the illustrations of one page.
func (r *ContentRepo) SectionImages(ctx context.Context, page string) ([]model.SectionImage, error) {
	const q = `
SELECT id, page, section, title, image_url
FROM section_images
WHERE page=$1
ORDER BY section ASC`
	rows, err := r.db.Pool.Query(ctx, q, page)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SectionImage
	for rows.Next() {
		var img model.SectionImage
		if err = rows.Scan(&img.ID, &img.Page, &img.Section, &img.Title, &img.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// Invoice returns the most recent invoice document.
func (r *ContentRepo) Invoice(ctx context.Context) (*model.Invoice, error) {
	const q = `SELECT id, pdf_url FROM invoices ORDER BY id DESC LIMIT 1`
	row := r.db.Pool.QueryRow(ctx, q)
	var inv model.Invoice
	if err := row.Scan(&inv.ID, &inv.PdfURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}
