package repository

import (
	"context"

	"github.com/mvogel/vogelwedding/internal/model"
)

// SettingsRepository provides access to the singleton configuration row.
type SettingsRepository interface {
	// Get returns the settings row, or errs.ErrNotFound if none exists yet.
	Get(ctx context.Context) (*model.AppSettings, error)
	// Upsert inserts or replaces the settings row.
	Upsert(ctx context.Context, s *model.AppSettings) error
}
