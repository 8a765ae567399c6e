// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/mvogel/vogelwedding/internal/model"
)

// RsvpRepository provides access to guest RSVP submissions.
type RsvpRepository interface {
	// Insert stores a new RSVP entry.
	Insert(ctx context.Context, e *model.RsvpEntry) error
	// List returns all entries ordered by creation time, newest first.
	List(ctx context.Context) ([]model.RsvpEntry, error)
}
