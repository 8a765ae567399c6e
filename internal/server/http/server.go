// Package httpserver exposes the wedding application over a small JSON API.
// It is the composition shell for the UI layer: one session object per
// visitor, carrying that session's access tier, gallery view-model, and
// pending notifications.
package httpserver

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/gallery"
	"github.com/mvogel/vogelwedding/internal/photos"
	"github.com/mvogel/vogelwedding/internal/service"
	"github.com/mvogel/vogelwedding/internal/toast"
)

// Server wires services into HTTP handlers.
type Server struct {
	log     *zap.Logger
	signKey []byte

	auth     service.Authenticator
	accounts service.ServiceAccounts
	settings *service.SettingsService
	rsvp     *service.RsvpService
	wishlist *service.WishlistService
	content  *service.ContentService
	photos   *photos.Service

	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

// sessionTTL bounds how long an idle session stays in the registry.
const sessionTTL = 24 * time.Hour

// session is the per-visitor context object: tier, gallery state, toasts.
// mu serializes requests that touch the lock-free gallery view-model; the
// access service and toast buffer carry their own locks. lastSeen is guarded
// by Server.mu.
type session struct {
	access  *service.AccessService
	gallery *gallery.ViewModel
	toasts  *toast.Service

	mu       sync.Mutex
	lastSeen time.Time
}

// New constructs the HTTP server with injected services.
func New(
	log *zap.Logger,
	signKey []byte,
	auth service.Authenticator,
	accounts service.ServiceAccounts,
	settings *service.SettingsService,
	rsvp *service.RsvpService,
	wishlist *service.WishlistService,
	content *service.ContentService,
	ph *photos.Service,
) *Server {
	return &Server{
		log:      log,
		signKey:  signKey,
		auth:     auth,
		accounts: accounts,
		settings: settings,
		rsvp:     rsvp,
		wishlist: wishlist,
		content:  content,
		photos:   ph,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Handler returns the routed handler with logging and recovery middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/access/code", s.handleLoginCode)
	mux.HandleFunc("POST /api/access/admin", s.handleLoginAdmin)
	mux.HandleFunc("POST /api/access/logout", s.handleLogout)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleSaveSettings)

	mux.HandleFunc("POST /api/rsvp", s.handleSubmitRsvp)
	mux.HandleFunc("GET /api/rsvp", s.handleListRsvp)

	mux.HandleFunc("GET /api/wishlist", s.handleListWishlist)
	mux.HandleFunc("POST /api/wishlist/purchases", s.handleSettlePurchase)
	mux.HandleFunc("GET /api/wishlist/purchases", s.handleListPurchases)
	mux.HandleFunc("POST /api/wishlist/purchases/update", s.handleUpdatePurchase)

	mux.HandleFunc("GET /api/photos", s.handleListPhotos)
	mux.HandleFunc("POST /api/photos", s.handleUploadPhotos)

	mux.HandleFunc("GET /api/content/about", s.handleAboutImages)
	mux.HandleFunc("GET /api/content/information", s.handleInformationImages)
	mux.HandleFunc("GET /api/invoice", s.handleInvoice)

	return Recover(s.log, Logging(s.log, mux))
}

func (s *Server) newSession() *session {
	t := &toast.Service{}
	access := service.NewAccessService(s.auth, s.accounts, s.log)
	return &session{
		access:  access,
		gallery: gallery.New(s.photos, access, t, s.log),
		toasts:  t,
	}
}
