package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/errs"
	"github.com/mvogel/vogelwedding/internal/model"
	"github.com/mvogel/vogelwedding/internal/photos"
	"github.com/mvogel/vogelwedding/internal/service"
)

type fakeAuth struct {
	password string
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (string, error) {
	if password == f.password {
		return "token-" + email, nil
	}
	return "", errs.ErrUnauthorized
}

func (f *fakeAuth) SignOut(context.Context, string) error { return nil }

type fakeSettingsRepo struct {
	row *model.AppSettings
}

func (f *fakeSettingsRepo) Get(context.Context) (*model.AppSettings, error) {
	if f.row == nil {
		return nil, errs.ErrNotFound
	}
	cp := *f.row
	return &cp, nil
}

func (f *fakeSettingsRepo) Upsert(_ context.Context, s *model.AppSettings) error {
	cp := *s
	f.row = &cp
	return nil
}

type fakeRsvpRepo struct {
	entries []model.RsvpEntry
}

func (f *fakeRsvpRepo) Insert(_ context.Context, e *model.RsvpEntry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeRsvpRepo) List(context.Context) ([]model.RsvpEntry, error) {
	return append([]model.RsvpEntry(nil), f.entries...), nil
}

type fakeWishlistRepo struct {
	items     map[uuid.UUID]model.WishlistItem
	purchases []model.WishlistPurchase
}

func (f *fakeWishlistRepo) ListItems(context.Context) ([]model.WishlistItem, error) {
	var out []model.WishlistItem
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeWishlistRepo) GetItem(_ context.Context, id uuid.UUID) (*model.WishlistItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &it, nil
}

func (f *fakeWishlistRepo) UpsertItem(_ context.Context, it *model.WishlistItem) error {
	f.items[it.ID] = *it
	return nil
}

func (f *fakeWishlistRepo) InsertPurchase(_ context.Context, p *model.WishlistPurchase) error {
	f.purchases = append(f.purchases, *p)
	return nil
}

func (f *fakeWishlistRepo) UpdatePurchase(context.Context, *model.WishlistPurchase) error { return nil }

func (f *fakeWishlistRepo) ListPurchases(context.Context) ([]model.WishlistPurchase, error) {
	return append([]model.WishlistPurchase(nil), f.purchases...), nil
}

type fakeContentRepo struct{}

func (fakeContentRepo) SectionImages(context.Context, string) ([]model.SectionImage, error) {
	return nil, nil
}

func (fakeContentRepo) Invoice(context.Context) (*model.Invoice, error) {
	return &model.Invoice{ID: 1, PdfURL: "https://example.test/invoice.pdf"}, nil
}

type fakeStore struct {
	uploaded []string
}

func (f *fakeStore) Upload(_ context.Context, _ []byte, objectPath string, _ bool) error {
	f.uploaded = append(f.uploaded, objectPath)
	return nil
}

func (f *fakeStore) List(context.Context, string, int, int) ([]model.StorageObject, error) {
	return nil, nil
}

func (f *fakeStore) SignedURL(objectPath string, _ time.Duration) (string, error) {
	return "https://signed.test/" + objectPath, nil
}

func newTestServer(t *testing.T) (*Server, *fakeStore, *fakeWishlistRepo) {
	t.Helper()
	log := zap.NewNop()
	store := &fakeStore{}
	wishRepo := &fakeWishlistRepo{items: map[uuid.UUID]model.WishlistItem{}}

	settings := service.NewSettingsService(&fakeSettingsRepo{}, log)
	settings.Load(context.Background())
	enabled := settings.Current()
	enabled.RsvpEnabled = true
	if err := settings.Save(context.Background(), enabled); err != nil {
		t.Fatal(err)
	}

	srv := New(
		log,
		[]byte("test-sign-key"),
		&fakeAuth{password: "GEHEIM"},
		service.ServiceAccounts{
			GuestAll:    "guest-all@example.test",
			TestAll:     "test-all@example.test",
			TestInvited: "test-invited@example.test",
			Invited:     "invited@example.test",
		},
		settings,
		service.NewRsvpService(&fakeRsvpRepo{}),
		service.NewWishlistService(wishRepo, log),
		service.NewContentService(fakeContentRepo{}),
		photos.NewService(store, log),
	)
	return srv, store, wishRepo
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionCookie_PersistsTierAcrossRequests(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/access/code", loginCodeRequest{Code: "geheim"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d", rec.Code)
	}
	var resp accessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Tier != model.TierGuestAll.String() {
		t.Fatalf("tier %q, want %q", resp.Tier, model.TierGuestAll)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	// The next request with the cookie must land on the same session.
	rec = doJSON(t, h, http.MethodPost, "/api/rsvp", rsvpDTO{FirstName: "Max", Attendees: 2}, cookies)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("guest-all must not reach rsvp, got %d", rec.Code)
	}

	// Without the cookie the visitor is a fresh TierNone session.
	rec = doJSON(t, h, http.MethodPost, "/api/access/logout", nil, nil)
	var fresh accessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &fresh); err != nil {
		t.Fatal(err)
	}
	if fresh.Tier != model.TierNone.String() {
		t.Fatalf("fresh session tier %q", fresh.Tier)
	}
}

func TestAdminGates_RejectNonAdmins(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	for _, target := range []string{"/api/rsvp", "/api/wishlist/purchases", "/api/invoice"} {
		rec := doJSON(t, h, http.MethodGet, target, nil, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("GET %s: status %d, want 403", target, rec.Code)
		}
	}
}

func TestAdminLogin_OpensAdminEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/access/admin",
		loginAdminRequest{Email: "admin@example.test", Password: "GEHEIM"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login status %d", rec.Code)
	}
	cookies := rec.Result().Cookies()

	rec = doJSON(t, h, http.MethodGet, "/api/invoice", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("invoice status %d", rec.Code)
	}
	var inv invoiceDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatal(err)
	}
	if inv.PdfURL == "" {
		t.Fatal("empty invoice url")
	}
}

func TestAdminLogin_BadPassword(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/access/admin",
		loginAdminRequest{Email: "admin@example.test", Password: "falsch"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestSettlePurchase_AlwaysAccepted(t *testing.T) {
	srv, _, wishRepo := newTestServer(t)
	h := srv.Handler()

	// Unknown item: the purchase insert still happens, settlement is swallowed.
	rec := doJSON(t, h, http.MethodPost, "/api/wishlist/purchases",
		purchaseDTO{WishlistItemID: uuid.Must(uuid.NewV4()), PaidAmount: 25}, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d, want 202", rec.Code)
	}
	if len(wishRepo.purchases) != 1 {
		t.Fatalf("purchases recorded: %d", len(wishRepo.purchases))
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploadPhotos_SequentialAndOrdered(t *testing.T) {
	srv, store, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/access/code", loginCodeRequest{Code: "geheim"}, nil)
	cookies := rec.Result().Cookies()

	// Promote to an invited tier so photo upload is allowed.
	rec = doJSON(t, h, http.MethodPost, "/api/access/admin",
		loginAdminRequest{Email: "admin@example.test", Password: "GEHEIM"}, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login status %d", rec.Code)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"erstes.png", "zweites.png"} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(pngBytes(t, 8, 8)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.WriteField("modified", "2025-06-01T10:00:00Z"); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("modified", "2025-06-01T11:00:00Z"); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", rr.Code, rr.Body.String())
	}

	if len(store.uploaded) != 2 {
		t.Fatalf("uploaded %d objects, want 2", len(store.uploaded))
	}
	if !strings.Contains(store.uploaded[0], "erstes") || !strings.Contains(store.uploaded[1], "zweites") {
		t.Fatalf("upload order broken: %v", store.uploaded)
	}
	for _, p := range store.uploaded {
		if !strings.HasPrefix(p, photos.FolderParty+"/") {
			t.Fatalf("object outside party folder: %s", p)
		}
	}
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func TestSessionRegistry_EvictsIdleSessions(t *testing.T) {
	srv, _, _ := newTestServer(t)
	h := srv.Handler()

	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	srv.now = func() time.Time { return now }

	rec := doJSON(t, h, http.MethodGet, "/api/settings", nil, nil)
	cookies := rec.Result().Cookies()
	if srv.sessionCount() != 1 {
		t.Fatalf("sessions after first visit: %d", srv.sessionCount())
	}

	// Activity refreshes the idle clock.
	now = base.Add(20 * time.Hour)
	doJSON(t, h, http.MethodGet, "/api/settings", nil, cookies)

	// A new cookie-less visitor inside the TTL keeps the first session alive.
	now = base.Add(30 * time.Hour)
	doJSON(t, h, http.MethodGet, "/api/settings", nil, nil)
	if srv.sessionCount() != 2 {
		t.Fatalf("sessions within ttl: %d, want 2", srv.sessionCount())
	}

	// Past the TTL the idle sessions are dropped when the next one is minted.
	now = base.Add(60 * time.Hour)
	doJSON(t, h, http.MethodGet, "/api/settings", nil, nil)
	if srv.sessionCount() != 1 {
		t.Fatalf("sessions after ttl: %d, want 1", srv.sessionCount())
	}
}

func TestPhotosHandlers_ConcurrentRequestsSameSession(t *testing.T) {
	srv, store, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/access/admin",
		loginAdminRequest{Email: "admin@example.test", Password: "GEHEIM"}, nil)
	cookies := rec.Result().Cookies()

	img := pngBytes(t, 4, 4)
	uploadBody := func() (*bytes.Buffer, string) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("files", "bild.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(img); err != nil {
			t.Fatal(err)
		}
		mw.Close()
		return &body, mw.FormDataContentType()
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/photos", nil)
			for _, c := range cookies {
				req.AddCookie(c)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}

	uploads := make([]*http.Request, 4)
	for i := range uploads {
		body, ct := uploadBody()
		req := httptest.NewRequest(http.MethodPost, "/api/photos", body)
		req.Header.Set("Content-Type", ct)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		uploads[i] = req
	}
	for _, req := range uploads {
		wg.Add(1)
		go func(req *http.Request) {
			defer wg.Done()
			h.ServeHTTP(httptest.NewRecorder(), req)
		}(req)
	}
	wg.Wait()

	if len(store.uploaded) != 4 {
		t.Fatalf("uploaded %d objects, want 4", len(store.uploaded))
	}

	rr := doJSON(t, h, http.MethodGet, "/api/photos", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("listing after concurrent traffic: status %d", rr.Code)
	}
}

func TestUploadPhotos_TooManyFiles(t *testing.T) {
	srv, store, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/access/admin",
		loginAdminRequest{Email: "admin@example.test", Password: "GEHEIM"}, nil)
	cookies := rec.Result().Cookies()

	img := pngBytes(t, 4, 4)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i := 0; i < 101; i++ {
		fw, err := mw.CreateFormFile("files", "bild.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(img); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
	if len(store.uploaded) != 0 {
		t.Fatalf("nothing may be uploaded, got %v", store.uploaded)
	}
}
