package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mvogel/vogelwedding/internal/errs"
	"github.com/mvogel/vogelwedding/internal/model"
)

func TestSettingsRepo_Get_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSettingsRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`FROM app_settings\s+LIMIT 1`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "site_title", "rsvp_enabled", "notification_email",
			"page_home_visible", "page_about_visible", "page_wishlist_visible",
			"page_photos_visible", "page_contact_visible",
		}).AddRow(id, "Hochzeit", true, "mail@example.com", true, true, false, true, true))

	s, err := r.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Hochzeit", s.SiteTitle)
	require.True(t, s.RsvpEnabled)
	require.False(t, s.WishlistPageVisible)
}

func TestSettingsRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSettingsRepo(db)

	mock.ExpectQuery(`FROM app_settings`).WillReturnError(pgx.ErrNoRows)

	_, err := r.Get(context.Background())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSettingsRepo_Upsert_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSettingsRepo(db)

	s := model.DefaultSettings()
	s.ID = uuid.Must(uuid.NewV4())

	mock.ExpectExec(`INSERT INTO app_settings`).
		WithArgs(s.ID, s.SiteTitle, s.RsvpEnabled, s.NotificationEmail,
			s.HomePageVisible, s.AboutPageVisible, s.WishlistPageVisible,
			s.PhotosPageVisible, s.ContactPageVisible).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Upsert(context.Background(), &s))
}
