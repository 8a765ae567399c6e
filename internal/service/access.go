// Package service contains application services for access control, settings,
// RSVP, wishlist settlement, and static content.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/errs"
	"github.com/mvogel/vogelwedding/internal/model"
	"github.com/mvogel/vogelwedding/internal/notify"
)

// Authenticator is the platform auth collaborator.
type Authenticator interface {
	// SignIn exchanges credentials for an access token or errs.ErrUnauthorized.
	SignIn(ctx context.Context, email, password string) (string, error)
	// SignOut revokes a previously issued token.
	SignOut(ctx context.Context, token string) error
}

// ServiceAccounts holds the fixed account emails the passcode ladder tries.
// The shared passcode doubles as each account's password.
type ServiceAccounts struct {
	GuestAll    string
	TestAll     string
	TestInvited string
	Invited     string
}

// AccessService holds the session's current permission tier. One instance
// lives per user session; tier changes notify all subscribers.
type AccessService struct {
	auth     Authenticator
	accounts ServiceAccounts
	log      *zap.Logger

	mu    sync.Mutex
	tier  model.AccessTier
	token string

	changes notify.Broadcaster
}

// NewAccessService constructs an access service starting at TierNone.
func NewAccessService(auth Authenticator, accounts ServiceAccounts, log *zap.Logger) *AccessService {
	return &AccessService{auth: auth, accounts: accounts, log: log}
}

// CurrentTier returns the session's tier.
func (s *AccessService) CurrentTier() model.AccessTier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// OnChange registers a tier-change subscriber and returns an unsubscribe func.
func (s *AccessService) OnChange(fn func()) func() {
	return s.changes.Subscribe(fn)
}

// TryLoginWithCode normalizes the passcode and walks the fixed account ladder
// in priority order; the tier of the first account that authenticates wins.
// A single pass, no retry. All rungs failing leaves the session at TierNone.
func (s *AccessService) TryLoginWithCode(ctx context.Context, code string) model.AccessTier {
	code = strings.ToUpper(strings.TrimSpace(code))

	ladder := []struct {
		email string
		tier  model.AccessTier
	}{
		{s.accounts.GuestAll, model.TierGuestAll},
		{s.accounts.TestAll, model.TierTestUserAll},
		{s.accounts.TestInvited, model.TierTestUserInvited},
		{s.accounts.Invited, model.TierGuestInvited},
	}

	for _, rung := range ladder {
		token, err := s.auth.SignIn(ctx, rung.email, code)
		if err == nil {
			s.setTier(rung.tier, token)
			return rung.tier
		}
		if !errors.Is(err, errs.ErrUnauthorized) {
			s.log.Warn("passcode sign-in", zap.String("account", rung.email), zap.Error(err))
		}
	}

	s.setTier(model.TierNone, "")
	return model.TierNone
}

// LoginAdmin performs a real credential check against the platform and, on
// success, grants the absolute admin override.
func (s *AccessService) LoginAdmin(ctx context.Context, email, password string) bool {
	token, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		if !errors.Is(err, errs.ErrUnauthorized) {
			s.log.Warn("admin sign-in", zap.Error(err))
		}
		return false
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.SetAdminAccess()
	return true
}

// SetAdminAccess unconditionally grants TierAdmin. The caller is responsible
// for having verified real admin credentials first.
func (s *AccessService) SetAdminAccess() {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	s.setTier(model.TierAdmin, token)
}

// Logout resets the tier to TierNone and signs the platform session out.
func (s *AccessService) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token != "" {
		if err := s.auth.SignOut(ctx, token); err != nil {
			s.log.Warn("sign out", zap.Error(err))
		}
	}
	s.setTier(model.TierNone, "")
}

// HasRequiredAccess reports whether the current tier satisfies the required
// one. Admin is numerically highest, so it passes every check.
func (s *AccessService) HasRequiredAccess(required model.AccessTier) bool {
	return s.CurrentTier() >= required
}

// CanAccessPage reports whether a page behind a visibility toggle is open.
// Admins see every page regardless of toggles.
func (s *AccessService) CanAccessPage(pageEnabled bool) bool {
	return s.CurrentTier() == model.TierAdmin || pageEnabled
}

// CanAccessRsvp gates the RSVP form: invited-or-above and the feature enabled.
func (s *AccessService) CanAccessRsvp(rsvpEnabled bool) bool {
	tier := s.CurrentTier()
	return tier == model.TierAdmin || (tier >= model.TierGuestInvited && rsvpEnabled)
}

// CanAccessPhotos gates the gallery the same way as the RSVP form.
func (s *AccessService) CanAccessPhotos(photosEnabled bool) bool {
	tier := s.CurrentTier()
	return tier == model.TierAdmin || (tier >= model.TierGuestInvited && photosEnabled)
}

func (s *AccessService) setTier(tier model.AccessTier, token string) {
	s.mu.Lock()
	changed := s.tier != tier
	s.tier = tier
	s.token = token
	s.mu.Unlock()

	if changed {
		s.changes.Notify()
	}
}
