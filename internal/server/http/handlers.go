package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/model"
	"github.com/mvogel/vogelwedding/internal/photos"
	"github.com/mvogel/vogelwedding/internal/toast"
)

const maxUploadBytes = 512 << 20

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// --- access ---

type loginCodeRequest struct {
	Code string `json:"code"`
}

type accessResponse struct {
	Tier string `json:"tier"`
}

func (s *Server) handleLoginCode(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	var req loginCodeRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	tier := sess.access.TryLoginWithCode(r.Context(), req.Code)
	s.writeJSON(w, http.StatusOK, accessResponse{Tier: tier.String()})
}

type loginAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLoginAdmin(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)

	var req loginAdminRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	if !sess.access.LoginAdmin(r.Context(), req.Email, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	s.writeJSON(w, http.StatusOK, accessResponse{Tier: sess.access.CurrentTier().String()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	sess.access.Logout(r.Context())
	s.writeJSON(w, http.StatusOK, accessResponse{Tier: sess.access.CurrentTier().String()})
}

// --- settings ---

type settingsDTO struct {
	ID                  uuid.UUID `json:"id"`
	SiteTitle           string    `json:"site_title"`
	RsvpEnabled         bool      `json:"rsvp_enabled"`
	NotificationEmail   string    `json:"notification_email"`
	HomePageVisible     bool      `json:"home_page_visible"`
	AboutPageVisible    bool      `json:"about_page_visible"`
	WishlistPageVisible bool      `json:"wishlist_page_visible"`
	PhotosPageVisible   bool      `json:"photos_page_visible"`
	ContactPageVisible  bool      `json:"contact_page_visible"`
}

func settingsToDTO(a model.AppSettings) settingsDTO {
	return settingsDTO{
		ID:                  a.ID,
		SiteTitle:           a.SiteTitle,
		RsvpEnabled:         a.RsvpEnabled,
		NotificationEmail:   a.NotificationEmail,
		HomePageVisible:     a.HomePageVisible,
		AboutPageVisible:    a.AboutPageVisible,
		WishlistPageVisible: a.WishlistPageVisible,
		PhotosPageVisible:   a.PhotosPageVisible,
		ContactPageVisible:  a.ContactPageVisible,
	}
}

func (d settingsDTO) toModel() model.AppSettings {
	return model.AppSettings{
		ID:                  d.ID,
		SiteTitle:           d.SiteTitle,
		RsvpEnabled:         d.RsvpEnabled,
		NotificationEmail:   d.NotificationEmail,
		HomePageVisible:     d.HomePageVisible,
		AboutPageVisible:    d.AboutPageVisible,
		WishlistPageVisible: d.WishlistPageVisible,
		PhotosPageVisible:   d.PhotosPageVisible,
		ContactPageVisible:  d.ContactPageVisible,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(w, r)
	s.writeJSON(w, http.StatusOK, settingsToDTO(s.settings.Current()))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.HasRequiredAccess(model.TierAdmin) {
		http.Error(w, "admin only", http.StatusForbidden)
		return
	}

	var dto settingsDTO
	if !s.readJSON(w, r, &dto) {
		return
	}
	if err := s.settings.Save(r.Context(), dto.toModel()); err != nil {
		s.log.Warn("save settings", zap.Error(err))
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, settingsToDTO(s.settings.Current()))
}

// --- rsvp ---

type rsvpDTO struct {
	ID         uuid.UUID `json:"id,omitempty"`
	FirstName  string    `json:"first_name"`
	FamilyName string    `json:"family_name"`
	Attending  *bool     `json:"attending"`
	Attendees  int       `json:"attendees"`
	Street     string    `json:"street"`
	Zip        string    `json:"zip"`
	City       string    `json:"city"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

func (s *Server) handleSubmitRsvp(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.CanAccessRsvp(s.settings.Current().RsvpEnabled) {
		http.Error(w, "rsvp closed", http.StatusForbidden)
		return
	}

	var dto rsvpDTO
	if !s.readJSON(w, r, &dto) {
		return
	}
	if dto.Attendees < 0 || dto.Attendees > 10 {
		http.Error(w, "attendees out of range", http.StatusBadRequest)
		return
	}

	entry := model.RsvpEntry{
		FirstName:  dto.FirstName,
		FamilyName: dto.FamilyName,
		Attending:  dto.Attending,
		Attendees:  dto.Attendees,
		Street:     dto.Street,
		Zip:        dto.Zip,
		City:       dto.City,
		Email:      dto.Email,
		Message:    dto.Message,
	}
	if err := s.rsvp.Submit(r.Context(), entry); err != nil {
		s.log.Warn("submit rsvp", zap.Error(err))
		http.Error(w, "submit failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleListRsvp(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.HasRequiredAccess(model.TierAdmin) {
		http.Error(w, "admin only", http.StatusForbidden)
		return
	}

	entries, err := s.rsvp.List(r.Context())
	if err != nil {
		s.log.Warn("list rsvp", zap.Error(err))
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}

	out := make([]rsvpDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, rsvpDTO{
			ID:         e.ID,
			FirstName:  e.FirstName,
			FamilyName: e.FamilyName,
			Attending:  e.Attending,
			Attendees:  e.Attendees,
			Street:     e.Street,
			Zip:        e.Zip,
			City:       e.City,
			Email:      e.Email,
			Message:    e.Message,
			CreatedAt:  e.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// --- wishlist ---

type wishlistItemDTO struct {
	ID              uuid.UUID `json:"id"`
	SortNumber      int       `json:"sort_number"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Price           *float64  `json:"price"`
	Quantity        *int      `json:"quantity"`
	PaidAmount      float64   `json:"paid_amount"`
	NumberPaidUsers int       `json:"number_paid_users"`
	ImageURL        string    `json:"image_url"`
}

func (s *Server) handleListWishlist(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(w, r)

	items, err := s.wishlist.ListItems(r.Context())
	if err != nil {
		s.log.Warn("list wishlist", zap.Error(err))
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}

	out := make([]wishlistItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, wishlistItemDTO{
			ID:              it.ID,
			SortNumber:      it.SortNumber,
			Title:           it.Title,
			Description:     it.Description,
			Price:           it.Price,
			Quantity:        it.Quantity,
			PaidAmount:      it.PaidAmount,
			NumberPaidUsers: it.NumberPaidUsers,
			ImageURL:        it.ImageURL,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type purchaseDTO struct {
	ID              uuid.UUID  `json:"id,omitempty"`
	WishlistItemID  uuid.UUID  `json:"wishlist_item_id"`
	FirstName       string     `json:"first_name"`
	FamilyName      string     `json:"family_name"`
	Email           string     `json:"email"`
	PaidAmount      float64    `json:"paid_amount"`
	Quantity        int        `json:"quantity"`
	PurchasedAt     time.Time  `json:"purchased_at,omitzero"`
	EmailSent       bool       `json:"email_sent"`
	EmailSentAt     *time.Time `json:"email_sent_at"`
	MoneyReceived   bool       `json:"money_received"`
	MoneyReceivedAt *time.Time `json:"money_received_at"`
}

func (d purchaseDTO) toModel() model.WishlistPurchase {
	return model.WishlistPurchase{
		ID:              d.ID,
		WishlistItemID:  d.WishlistItemID,
		FirstName:       d.FirstName,
		FamilyName:      d.FamilyName,
		Email:           d.Email,
		PaidAmount:      d.PaidAmount,
		Quantity:        d.Quantity,
		PurchasedAt:     d.PurchasedAt,
		EmailSent:       d.EmailSent,
		EmailSentAt:     d.EmailSentAt,
		MoneyReceived:   d.MoneyReceived,
		MoneyReceivedAt: d.MoneyReceivedAt,
	}
}

func purchaseToDTO(p model.WishlistPurchase) purchaseDTO {
	return purchaseDTO{
		ID:              p.ID,
		WishlistItemID:  p.WishlistItemID,
		FirstName:       p.FirstName,
		FamilyName:      p.FamilyName,
		Email:           p.Email,
		PaidAmount:      p.PaidAmount,
		Quantity:        p.Quantity,
		PurchasedAt:     p.PurchasedAt,
		EmailSent:       p.EmailSent,
		EmailSentAt:     p.EmailSentAt,
		MoneyReceived:   p.MoneyReceived,
		MoneyReceivedAt: p.MoneyReceivedAt,
	}
}

// handleSettlePurchase records a purchase. Settlement failures are logged and
// swallowed; the guest still sees success because the purchase intent was
// taken and the couple reconciles by hand.
func (s *Server) handleSettlePurchase(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(w, r)

	var dto purchaseDTO
	if !s.readJSON(w, r, &dto) {
		return
	}
	if dto.WishlistItemID == uuid.Nil {
		http.Error(w, "missing wishlist item", http.StatusBadRequest)
		return
	}

	if err := s.wishlist.SettlePurchase(r.Context(), dto.toModel()); err != nil {
		s.log.Warn("settle purchase", zap.Error(err))
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.HasRequiredAccess(model.TierAdmin) {
		http.Error(w, "admin only", http.StatusForbidden)
		return
	}

	purchases, err := s.wishlist.ListPurchases(r.Context())
	if err != nil {
		s.log.Warn("list purchases", zap.Error(err))
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}

	out := make([]purchaseDTO, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, purchaseToDTO(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.HasRequiredAccess(model.TierAdmin) {
		http.Error(w, "admin only", http.StatusForbidden)
		return
	}

	var dto purchaseDTO
	if !s.readJSON(w, r, &dto) {
		return
	}
	if err := s.wishlist.UpdatePurchase(r.Context(), dto.toModel()); err != nil {
		s.log.Warn("update purchase", zap.Error(err))
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- photos ---

type photosResponse struct {
	ImageURLs []string        `json:"image_urls"`
	HasMore   bool            `json:"has_more"`
	Folder    string          `json:"folder"`
	Toasts    []toast.Message `json:"toasts,omitempty"`
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.CanAccessPhotos(s.settings.Current().PhotosPageVisible) {
		http.Error(w, "photos closed", http.StatusForbidden)
		return
	}

	// The view-model carries no locks; one request at a time per session.
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ctx := r.Context()
	if offset, _ := strconv.Atoi(r.URL.Query().Get("offset")); offset > 0 {
		sess.gallery.LoadMore(ctx)
	} else {
		sess.gallery.Initialize(ctx)
	}

	s.writeJSON(w, http.StatusOK, photosResponse{
		ImageURLs: sess.gallery.ImageURLs(),
		HasMore:   sess.gallery.HasMoreImages(),
		Folder:    sess.gallery.Folder(),
		Toasts:    sess.toasts.Drain(),
	})
}

// multipartFile adapts one uploaded part to the photo pipeline. The part body
// is buffered up front because uploads run after the form is fully parsed.
type multipartFile struct {
	name    string
	modTime time.Time
	data    []byte
}

func (f *multipartFile) Name() string       { return f.name }
func (f *multipartFile) ModTime() time.Time { return f.modTime }
func (f *multipartFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// handleUploadPhotos stages the multipart batch and commits it in one request.
// The optional "modified" form values carry per-file RFC 3339 capture-time
// fallbacks, aligned by position with the file parts.
func (s *Server) handleUploadPhotos(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.CanAccessPhotos(s.settings.Current().PhotosPageVisible) {
		http.Error(w, "photos closed", http.StatusForbidden)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["files"]
	modified := r.MultipartForm.Value["modified"]

	files := make([]photos.File, 0, len(headers))
	for i, h := range headers {
		f, err := readPart(h, partModTime(modified, i))
		if err != nil {
			s.log.Warn("read upload part", zap.String("file", h.Filename), zap.Error(err))
			continue
		}
		files = append(files, f)
	}

	ctx := r.Context()
	if sess.gallery.Folder() == "" {
		sess.gallery.Initialize(ctx)
	}
	if err := sess.gallery.SelectFiles(files); err != nil {
		s.writeJSON(w, http.StatusBadRequest, photosResponse{Toasts: sess.toasts.Drain()})
		return
	}
	sess.gallery.ConfirmUpload(ctx)

	s.writeJSON(w, http.StatusOK, photosResponse{
		ImageURLs: sess.gallery.ImageURLs(),
		HasMore:   sess.gallery.HasMoreImages(),
		Folder:    sess.gallery.Folder(),
		Toasts:    sess.toasts.Drain(),
	})
}

func readPart(h *multipart.FileHeader, modTime time.Time) (photos.File, error) {
	part, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}
	return &multipartFile{name: h.Filename, modTime: modTime, data: data}, nil
}

func partModTime(modified []string, i int) time.Time {
	if i < len(modified) {
		if t, err := time.Parse(time.RFC3339, modified[i]); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// --- content ---

type sectionImageDTO struct {
	ID       uuid.UUID `json:"id"`
	Section  string    `json:"section"`
	Title    string    `json:"title"`
	ImageURL string    `json:"image_url"`
}

func (s *Server) writeSectionImages(w http.ResponseWriter, images []model.SectionImage, err error) {
	if err != nil {
		s.log.Warn("list section images", zap.Error(err))
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	out := make([]sectionImageDTO, 0, len(images))
	for _, img := range images {
		out = append(out, sectionImageDTO{ID: img.ID, Section: img.Section, Title: img.Title, ImageURL: img.ImageURL})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAboutImages(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.CanAccessPage(s.settings.Current().AboutPageVisible) {
		http.Error(w, "page hidden", http.StatusForbidden)
		return
	}
	images, err := s.content.AboutImages(r.Context())
	s.writeSectionImages(w, images, err)
}

func (s *Server) handleInformationImages(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(w, r)
	images, err := s.content.InformationImages(r.Context())
	s.writeSectionImages(w, images, err)
}

type invoiceDTO struct {
	ID     int64  `json:"id"`
	PdfURL string `json:"pdf_url"`
}

func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if !sess.access.HasRequiredAccess(model.TierAdmin) {
		http.Error(w, "admin only", http.StatusForbidden)
		return
	}
	inv, err := s.content.Invoice(r.Context())
	if err != nil {
		s.log.Warn("fetch invoice", zap.Error(err))
		http.Error(w, "fetch failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, invoiceDTO{ID: inv.ID, PdfURL: inv.PdfURL})
}
