package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mvogel/vogelwedding/internal/model"
)

// WishlistRepository provides access to wishlist items and their purchases.
type WishlistRepository interface {
	// ListItems returns all items ordered by sort number.
	ListItems(ctx context.Context) ([]model.WishlistItem, error)
	// GetItem returns a single item, or errs.ErrNotFound.
	GetItem(ctx context.Context, id uuid.UUID) (*model.WishlistItem, error)
	// UpsertItem inserts or replaces an item row.
	UpsertItem(ctx context.Context, it *model.WishlistItem) error
	// InsertPurchase stores a new purchase record.
	InsertPurchase(ctx context.Context, p *model.WishlistPurchase) error
	// UpdatePurchase replaces the fulfillment state of an existing purchase.
	UpdatePurchase(ctx context.Context, p *model.WishlistPurchase) error
	// ListPurchases returns all purchases ordered by purchase time, newest first.
	ListPurchases(ctx context.Context) ([]model.WishlistPurchase, error)
}
