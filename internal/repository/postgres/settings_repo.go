package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mvogel/vogelwedding/internal/errs"
	"github.com/mvogel/vogelwedding/internal/model"
)

// SettingsRepo implements SettingsRepository using PostgreSQL.
type SettingsRepo struct{ db *DB }

// NewSettingsRepo constructs a settings repository.
func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get returns the singleton settings row.
func (r *SettingsRepo) Get(ctx context.Context) (*model.AppSettings, error) {
	const q = `
SELECT id, site_title, rsvp_enabled, notification_email,
       page_home_visible, page_about_visible, page_wishlist_visible, page_photos_visible, page_contact_visible
FROM app_settings
LIMIT 1`
	row := r.db.Pool.QueryRow(ctx, q)
	var s model.AppSettings
	if err := row.Scan(&s.ID, &s.SiteTitle, &s.RsvpEnabled, &s.NotificationEmail,
		&s.HomePageVisible, &s.AboutPageVisible, &s.WishlistPageVisible,
		&s.PhotosPageVisible, &s.ContactPageVisible); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Upsert inserts or replaces the settings row.
func (r *SettingsRepo) Upsert(ctx context.Context, s *model.AppSettings) error {
	const q = `
INSERT INTO app_settings (id, site_title, rsvp_enabled, notification_email,
       page_home_visible, page_about_visible, page_wishlist_visible, page_photos_visible, page_contact_visible)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
       site_title=$2, rsvp_enabled=$3, notification_email=$4,
       page_home_visible=$5, page_about_visible=$6, page_wishlist_visible=$7,
       page_photos_visible=$8, page_contact_visible=$9`
	_, err := r.db.Pool.Exec(ctx, q,
		s.ID, s.SiteTitle, s.RsvpEnabled, s.NotificationEmail,
		s.HomePageVisible, s.AboutPageVisible, s.WishlistPageVisible,
		s.PhotosPageVisible, s.ContactPageVisible)
	return err
}
