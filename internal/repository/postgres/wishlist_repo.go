package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mvogel/vogelwedding/internal/errs"
	"github.com/mvogel/vogelwedding/internal/model"
)

// WishlistRepo implements WishlistRepository using PostgreSQL.
type WishlistRepo struct{ db *DB }

// NewWishlistRepo constructs a wishlist repository.
func NewWishlistRepo(db *DB) *WishlistRepo { return &WishlistRepo{db: db} }

// ListItems returns all items ordered by sort number.
func (r *WishlistRepo) ListItems(ctx context.Context) ([]model.WishlistItem, error) {
	const q = `
SELECT id, sort_number, title, description, price, quantity, paid_amount, number_paid_users, image_url
FROM wishlist_items
ORDER BY sort_number ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WishlistItem
	for rows.Next() {
		var it model.WishlistItem
		if err = rows.Scan(&it.ID, &it.SortNumber, &it.Title, &it.Description,
			&it.Price, &it.Quantity, &it.PaidAmount, &it.NumberPaidUsers, &it.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetItem returns a single item by id.
func (r *WishlistRepo) GetItem(ctx context.Context, id uuid.UUID) (*model.WishlistItem, error) {
	const q = `
SELECT id, sort_number, title, description, price, quantity, paid_amount, number_paid_users, image_url
FROM wishlist_items WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var it model.WishlistItem
	if err := row.Scan(&it.ID, &it.SortNumber, &it.Title, &it.Description,
		&it.Price, &it.Quantity, &it.PaidAmount, &it.NumberPaidUsers, &it.ImageURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// UpsertItem inserts or replaces an item row.
func (r *WishlistRepo) UpsertItem(ctx context.Context, it *model.WishlistItem) error {
	const q = `
INSERT INTO wishlist_items (id, sort_number, title, description, price, quantity, paid_amount, number_paid_users, image_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
       sort_number=$2, title=$3, description=$4, price=$5, quantity=$6,
       paid_amount=$7, number_paid_users=$8, image_url=$9`
	_, err := r.db.Pool.Exec(ctx, q,
		it.ID, it.SortNumber, it.Title, it.Description, it.Price, it.Quantity,
		it.PaidAmount, it.NumberPaidUsers, it.ImageURL)
	return err
}

// InsertPurchase stores a new purchase record.
func (r *WishlistRepo) InsertPurchase(ctx context.Context, p *model.WishlistPurchase) error {
	const q = `
INSERT INTO wishlist_purchases (id, wishlist_item_id, first_name, family_name, email,
       paid_amount, quantity, purchased_at, email_sent, email_sent_at, money_received, money_received_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.db.Pool.Exec(ctx, q,
		p.ID, p.WishlistItemID, p.FirstName, p.FamilyName, p.Email,
		p.PaidAmount, p.Quantity, p.PurchasedAt,
		p.EmailSent, p.EmailSentAt, p.MoneyReceived, p.MoneyReceivedAt)
	return err
}

// UpdatePurchase replaces the fulfillment state of an existing purchase.
func (r *WishlistRepo) UpdatePurchase(ctx context.Context, p *model.WishlistPurchase) error {
	const q = `
UPDATE wishlist_purchases
SET email_sent=$2, email_sent_at=$3, money_received=$4, money_received_at=$5
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q,
		p.ID, p.EmailSent, p.EmailSentAt, p.MoneyReceived, p.MoneyReceivedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListPurchases returns all purchases, newest first.
func (r *WishlistRepo) ListPurchases(ctx context.Context) ([]model.WishlistPurchase, error) {
	const q = `
SELECT id, wishlist_item_id, first_name, family_name, email,
       paid_amount, quantity, purchased_at, email_sent, email_sent_at, money_received, money_received_at
FROM wishlist_purchases
ORDER BY purchased_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WishlistPurchase
	for rows.Next() {
		var p model.WishlistPurchase
		if err = rows.Scan(&p.ID, &p.WishlistItemID, &p.FirstName, &p.FamilyName, &p.Email,
			&p.PaidAmount, &p.Quantity, &p.PurchasedAt,
			&p.EmailSent, &p.EmailSentAt, &p.MoneyReceived, &p.MoneyReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
