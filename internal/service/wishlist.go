package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/model"
	"github.com/mvogel/vogelwedding/internal/repository"
)

// WishlistService lists items and settles guest purchases against them.
type WishlistService struct {
	repo repository.WishlistRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewWishlistService constructs a wishlist service.
func NewWishlistService(repo repository.WishlistRepository, log *zap.Logger) *WishlistService {
	return &WishlistService{repo: repo, log: log, now: time.Now}
}

// ListItems returns all wishlist items in display order.
func (s *WishlistService) ListItems(ctx context.Context) ([]model.WishlistItem, error) {
	return s.repo.ListItems(ctx)
}

// ListPurchases returns all purchases for the admin view.
func (s *WishlistService) ListPurchases(ctx context.Context) ([]model.WishlistPurchase, error) {
	return s.repo.ListPurchases(ctx)
}

// SettlePurchase persists the purchase and credits the referenced item.
//
// An item with a finite quantity and a price loses exactly one unit per
// accepted purchase, regardless of the purchase's own quantity field; an item
// without a quantity is only ever credited. A finite-quantity item without a
// price is left untouched after the purchase insert.
//
// The two writes are not transactional: a failure between them leaves the
// purchase recorded but the item not credited. Call sites log and swallow the
// returned error; there is no retry.
func (s *WishlistService) SettlePurchase(ctx context.Context, p model.WishlistPurchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.Must(uuid.NewV4())
	}
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = s.now().UTC()
	}

	if err := s.repo.InsertPurchase(ctx, &p); err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}

	item, err := s.repo.GetItem(ctx, p.WishlistItemID)
	if err != nil {
		return fmt.Errorf("settle purchase %s: %w", p.ID, err)
	}

	switch {
	case item.Quantity == nil:
		item.PaidAmount += p.PaidAmount
		item.NumberPaidUsers++

	case item.Price != nil:
		*item.Quantity--
		item.PaidAmount += p.PaidAmount
		item.NumberPaidUsers++

	default:
		// Finite quantity without a price: nothing to settle against.
		return nil
	}

	if err := s.repo.UpsertItem(ctx, item); err != nil {
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	return nil
}

// UpdatePurchase saves admin fulfillment changes, enforcing the flag
// invariant: money cannot be marked received before the notification email
// went out. Timestamps are set once when a flag turns true and cleared when
// it turns false.
func (s *WishlistService) UpdatePurchase(ctx context.Context, p model.WishlistPurchase) error {
	now := s.now().UTC()

	if p.MoneyReceived && !p.EmailSent {
		p.MoneyReceived = false
		p.MoneyReceivedAt = nil
	}

	if p.EmailSent {
		if p.EmailSentAt == nil {
			p.EmailSentAt = &now
		}
	} else {
		p.EmailSentAt = nil
	}

	if p.MoneyReceived {
		if p.MoneyReceivedAt == nil {
			p.MoneyReceivedAt = &now
		}
	} else {
		p.MoneyReceivedAt = nil
	}

	if err := s.repo.UpdatePurchase(ctx, &p); err != nil {
		return fmt.Errorf("update purchase %s: %w", p.ID, err)
	}
	return nil
}
