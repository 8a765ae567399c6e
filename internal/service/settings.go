package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/errs"
	"github.com/mvogel/vogelwedding/internal/model"
	"github.com/mvogel/vogelwedding/internal/notify"
	"github.com/mvogel/vogelwedding/internal/repository"
)

// SettingsService caches the singleton site configuration row.
type SettingsService struct {
	repo repository.SettingsRepository
	log  *zap.Logger

	mu      sync.Mutex
	current *model.AppSettings

	changes notify.Broadcaster
}

// NewSettingsService constructs a settings service with an empty cache.
func NewSettingsService(repo repository.SettingsRepository, log *zap.Logger) *SettingsService {
	return &SettingsService{repo: repo, log: log}
}

// Current returns the cached settings, or the defaults before the first Load.
func (s *SettingsService) Current() model.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.DefaultSettings()
	}
	return *s.current
}

// OnChange registers a settings-change subscriber and returns an unsubscribe func.
func (s *SettingsService) OnChange(fn func()) func() {
	return s.changes.Subscribe(fn)
}

// Load fetches the singleton row. A missing row is created from defaults and
// persisted; a failed read falls back to an unsaved in-memory default, so the
// caller always ends up with usable configuration.
func (s *SettingsService) Load(ctx context.Context) {
	row, err := s.repo.Get(ctx)
	switch {
	case err == nil:
		s.replace(*row)

	case errors.Is(err, errs.ErrNotFound):
		def := model.DefaultSettings()
		def.ID = uuid.Must(uuid.NewV4())
		if err := s.Save(ctx, def); err != nil {
			s.log.Warn("persist initial settings", zap.Error(err))
			s.replace(def)
		}

	default:
		s.log.Warn("load settings", zap.Error(err))
		s.replace(model.DefaultSettings())
	}
}

// Save upserts the row. On success the cache is replaced and subscribers are
// notified; on failure the error propagates and the cache stays untouched.
func (s *SettingsService) Save(ctx context.Context, settings model.AppSettings) error {
	if settings.ID == uuid.Nil {
		settings.ID = uuid.Must(uuid.NewV4())
	}
	if err := s.repo.Upsert(ctx, &settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.replace(settings)
	return nil
}

func (s *SettingsService) replace(settings model.AppSettings) {
	s.mu.Lock()
	s.current = &settings
	s.mu.Unlock()
	s.changes.Notify()
}
