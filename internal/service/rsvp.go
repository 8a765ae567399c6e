package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mvogel/vogelwedding/internal/model"
	"github.com/mvogel/vogelwedding/internal/repository"
)

// RsvpService records and lists guest RSVP submissions. Form-level validation
// (emails, zip codes) belongs to the UI layer; this service only persists.
type RsvpService struct {
	repo repository.RsvpRepository
}

// NewRsvpService constructs an RSVP service.
func NewRsvpService(repo repository.RsvpRepository) *RsvpService {
	return &RsvpService{repo: repo}
}

// Submit stores one guest entry, assigning ID and timestamp when absent.
// Failures are wrapped for the caller to surface to the user.
func (s *RsvpService) Submit(ctx context.Context, e model.RsvpEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.Must(uuid.NewV4())
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.Insert(ctx, &e); err != nil {
		return fmt.Errorf("submit rsvp: %w", err)
	}
	return nil
}

// List returns all entries for the admin view, newest first.
func (s *RsvpService) List(ctx context.Context) ([]model.RsvpEntry, error) {
	return s.repo.List(ctx)
}
