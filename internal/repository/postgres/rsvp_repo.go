package postgres

import (
	"context"

	"github.com/mvogel/vogelwedding/internal/model"
)

// RsvpRepo implements RsvpRepository using PostgreSQL.
type RsvpRepo struct{ db *DB }

// NewRsvpRepo constructs an RSVP repository.
func NewRsvpRepo(db *DB) *RsvpRepo { return &RsvpRepo{db: db} }

// Insert stores a new RSVP entry.
func (r *RsvpRepo) Insert(ctx context.Context, e *model.RsvpEntry) error {
	const q = `
INSERT INTO rsvp_entries (id, first_name, family_name, attending, attendees, street, zip, city, email, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.db.Pool.Exec(ctx, q,
		e.ID, e.FirstName, e.FamilyName, e.Attending, e.Attendees,
		e.Street, e.Zip, e.City, e.Email, e.Message, e.CreatedAt)
	return err
}

// List returns all entries, newest first.
func (r *RsvpRepo) List(ctx context.Context) ([]model.RsvpEntry, error) {
	const q = `
SELECT id, first_name, family_name, attending, attendees, street, zip, city, email, message, created_at
FROM rsvp_entries
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RsvpEntry
	for rows.Next() {
		var e model.RsvpEntry
		if err = rows.Scan(&e.ID, &e.FirstName, &e.FamilyName, &e.Attending, &e.Attendees,
			&e.Street, &e.Zip, &e.City, &e.Email, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
