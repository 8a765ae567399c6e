// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// AccessTier is an ordered permission level derived from a shared passcode.
// Comparison is by rank; Admin is numerically highest and passes every check.
type AccessTier int

const (
	TierNone AccessTier = iota
	TierGuestAll
	TierGuestInvited
	TierTestUserAll
	TierTestUserInvited
	TierAdmin
)

// String returns a human-readable tier name for logging.
func (t AccessTier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierGuestAll:
		return "guest-all"
	case TierGuestInvited:
		return "guest-invited"
	case TierTestUserAll:
		return "test-all"
	case TierTestUserInvited:
		return "test-invited"
	case TierAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// RsvpEntry is a single guest submission. Created once by a guest, read by admins.
type RsvpEntry struct {
	ID         uuid.UUID
	FirstName  string
	FamilyName string
	Attending  *bool // nil until the guest picked an answer
	Attendees  int   // 0..10
	Street     string
	Zip        string
	City       string
	Email      string
	Message    string
	CreatedAt  time.Time
}

// WishlistItem is a giftable item. Price and Quantity are optional: an item
// without Quantity is open-ended (donation-style) and is only ever credited.
type WishlistItem struct {
	ID              uuid.UUID
	SortNumber      int
	Title           string
	Description     string
	Price           *float64
	Quantity        *int
	PaidAmount      float64
	NumberPaidUsers int
	ImageURL        string
}

// WishlistPurchase is one contribution towards a wishlist item. The two
// fulfillment flags are set later by an admin and carry their own timestamps.
type WishlistPurchase struct {
	ID             uuid.UUID
	WishlistItemID uuid.UUID
	FirstName      string
	FamilyName     string
	Email          string
	PaidAmount     float64
	Quantity       int
	PurchasedAt    time.Time

	EmailSent       bool
	EmailSentAt     *time.Time
	MoneyReceived   bool
	MoneyReceivedAt *time.Time
}

// AppSettings is the singleton site configuration row.
type AppSettings struct {
	ID                uuid.UUID
	SiteTitle         string
	RsvpEnabled       bool
	NotificationEmail string

	HomePageVisible     bool
	AboutPageVisible    bool
	WishlistPageVisible bool
	PhotosPageVisible   bool
	ContactPageVisible  bool
}

// DefaultSettings returns the configuration used before the singleton row
// exists or when it cannot be read.
func DefaultSettings() AppSettings {
	return AppSettings{
		SiteTitle:           "Our Wedding",
		RsvpEnabled:         false,
		HomePageVisible:     true,
		AboutPageVisible:    true,
		WishlistPageVisible: true,
		PhotosPageVisible:   true,
		ContactPageVisible:  true,
	}
}

// SectionImage is a static page illustration, keyed by page and section.
type SectionImage struct {
	ID       uuid.UUID
	Page     string // "about" or "information"
	Section  string
	Title    string
	ImageURL string
}

// Invoice points at the hosted invoice document shown to admins.
type Invoice struct {
	ID     int64
	PdfURL string
}

// StorageObject is one entry of a bucket folder listing.
type StorageObject struct {
	Name      string
	CreatedAt time.Time
}
