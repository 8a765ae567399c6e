// Package gallery implements the photo page view-model: paginated listing,
// upload staging with previews, and a strictly sequential upload pipeline.
package gallery

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/errs"
	"github.com/mvogel/vogelwedding/internal/imaging"
	"github.com/mvogel/vogelwedding/internal/model"
	"github.com/mvogel/vogelwedding/internal/notify"
	"github.com/mvogel/vogelwedding/internal/photos"
)

const (
	// PageSize is the fixed number of images fetched per listing page.
	PageSize = 24
	// MaxSelection caps one staging batch; exceeding it fails the whole batch.
	MaxSelection = 100
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".heif": true, ".heic": true,
}

// PhotoService is the slice of the photo layer the view-model drives.
type PhotoService interface {
	ListImageURLs(ctx context.Context, folder string, limit, offset int) ([]string, error)
	UploadFiles(ctx context.Context, files []photos.File, folder string, progress func(done int)) ([]string, error)
}

// TierSource exposes the session's current access tier.
type TierSource interface {
	CurrentTier() model.AccessTier
}

// Notifier surfaces transient, toast-style messages to the user. Failures
// never crash the view; they end up here.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// ViewModel holds the photo page state. One instance per user session; all
// mutations happen on the single logical task driving a user action, so the
// state carries no locks. Subscribers are notified after each mutation.
type ViewModel struct {
	photos   PhotoService
	access   TierSource
	notifier Notifier
	log      *zap.Logger

	changes notify.Broadcaster

	folder        string
	imageURLs     []string
	offset        int
	loading       bool
	loadingMore   bool
	hasMore       bool
	staged        []photos.File
	previews      []string
	uploading     bool
	uploadedCount int
	totalToUpload int
}

// New constructs a gallery view-model.
func New(p PhotoService, access TierSource, notifier Notifier, log *zap.Logger) *ViewModel {
	return &ViewModel{photos: p, access: access, notifier: notifier, log: log, hasMore: true}
}

// OnChange registers a state-change subscriber and returns an unsubscribe func.
func (vm *ViewModel) OnChange(fn func()) func() { return vm.changes.Subscribe(fn) }

// ImageURLs returns the loaded page contents in display order.
func (vm *ViewModel) ImageURLs() []string { return append([]string(nil), vm.imageURLs...) }

// HasMoreImages reports whether another page may exist.
func (vm *ViewModel) HasMoreImages() bool { return vm.hasMore }

// IsLoading reports whether the initial page load is in flight.
func (vm *ViewModel) IsLoading() bool { return vm.loading }

// IsUploading reports whether an upload batch is in flight.
func (vm *ViewModel) IsUploading() bool { return vm.uploading }

// StagedFiles returns the files awaiting upload confirmation.
func (vm *ViewModel) StagedFiles() []photos.File { return append([]photos.File(nil), vm.staged...) }

// Previews returns one inline data URI per staged file ("" when preview
// generation failed for that file).
func (vm *ViewModel) Previews() []string { return append([]string(nil), vm.previews...) }

// Folder returns the storage folder this session reads and writes.
func (vm *ViewModel) Folder() string { return vm.folder }

// Progress returns upload completion in percent.
func (vm *ViewModel) Progress() float64 {
	if vm.totalToUpload == 0 {
		return 0
	}
	return float64(vm.uploadedCount) / float64(vm.totalToUpload) * 100
}

// Initialize picks the folder from the access tier and loads the first page.
// Folder partitioning is the only access check the gallery performs.
func (vm *ViewModel) Initialize(ctx context.Context) {
	vm.folder = photos.FolderForTier(vm.access.CurrentTier())
	vm.loadImages(ctx, true)
}

// LoadMore fetches the next page. It is a no-op while a load is in flight or
// after a page came back short (end of list).
func (vm *ViewModel) LoadMore(ctx context.Context) {
	if vm.loading || vm.loadingMore || !vm.hasMore {
		return
	}
	vm.loadImages(ctx, false)
}

func (vm *ViewModel) loadImages(ctx context.Context, reset bool) {
	if reset {
		vm.loading = true
		vm.imageURLs = nil
		vm.offset = 0
		vm.hasMore = true
	} else {
		vm.loadingMore = true
	}
	vm.changes.Notify()

	defer func() {
		vm.loading = false
		vm.loadingMore = false
		vm.changes.Notify()
	}()

	urls, err := vm.photos.ListImageURLs(ctx, vm.folder, PageSize, vm.offset)
	if err != nil {
		vm.log.Warn("load images", zap.String("folder", vm.folder), zap.Error(err))
		vm.notifier.Error("Fehler beim Laden der Bilder.")
		return
	}

	if len(urls) > 0 {
		vm.imageURLs = append(vm.imageURLs, urls...)
		vm.offset += len(urls)
		vm.hasMore = len(urls) == PageSize
	} else {
		vm.hasMore = false
	}
}

// SelectFiles stages a batch for upload. More than MaxSelection files fails
// the whole selection with nothing staged. Files outside the extension
// allow-list are skipped with one aggregate warning; a failed preview is
// reported per file but keeps the file staged.
func (vm *ViewModel) SelectFiles(files []photos.File) error {
	if len(files) > MaxSelection {
		vm.notifier.Error(fmt.Sprintf("Zu viele Dateien ausgewählt: Maximal %d auf einmal erlaubt.", MaxSelection))
		return errs.ErrTooManyFiles
	}
	if len(files) == 0 {
		return nil
	}

	vm.staged = nil
	vm.previews = nil
	vm.changes.Notify()

	skipped := false
	for _, f := range files {
		if !allowedExtensions[strings.ToLower(path.Ext(f.Name()))] {
			skipped = true
			continue
		}
		vm.staged = append(vm.staged, f)
		vm.previews = append(vm.previews, vm.preview(f))
		vm.changes.Notify()
	}

	if skipped {
		vm.notifier.Info("Einige Dateien wurden übersprungen, da sie ein falsches Format haben.")
	}
	return nil
}

func (vm *ViewModel) preview(f photos.File) string {
	rc, err := f.Open()
	if err != nil {
		vm.notifier.Error(fmt.Sprintf("Fehler beim Anzeigen von %s.", f.Name()))
		return ""
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err == nil {
		var uri string
		if uri, err = imaging.Preview(data); err == nil {
			return uri
		}
	}
	vm.log.Warn("preview", zap.String("file", f.Name()), zap.Error(err))
	vm.notifier.Error(fmt.Sprintf("Fehler beim Anzeigen von %s.", f.Name()))
	return ""
}

// RemoveFile drops one staged file before commit. An out-of-range index is a
// silent no-op.
func (vm *ViewModel) RemoveFile(index int) {
	if index < 0 || index >= len(vm.staged) {
		return
	}
	vm.staged = append(vm.staged[:index], vm.staged[index+1:]...)
	vm.previews = append(vm.previews[:index], vm.previews[index+1:]...)
	vm.changes.Notify()
}

// ClearSelection discards the staged batch without uploading.
func (vm *ViewModel) ClearSelection() {
	vm.staged = nil
	vm.previews = nil
	vm.changes.Notify()
}

// ConfirmUpload commits the staged batch: files go up one at a time with a
// progress signal after each, and the staged state is cleared afterwards no
// matter the outcome. The finished gallery is reloaded from the first page.
func (vm *ViewModel) ConfirmUpload(ctx context.Context) {
	if len(vm.staged) == 0 {
		return
	}

	files := vm.staged
	vm.uploading = true
	vm.totalToUpload = len(files)
	vm.uploadedCount = 0
	vm.changes.Notify()

	defer func() {
		vm.uploading = false
		vm.staged = nil
		vm.previews = nil
		vm.changes.Notify()
	}()

	urls, err := vm.photos.UploadFiles(ctx, files, vm.folder, func(done int) {
		vm.uploadedCount = done
		vm.changes.Notify()
	})
	if err != nil {
		vm.log.Warn("upload batch", zap.Error(err))
		vm.notifier.Error("Upload fehlgeschlagen.")
		return
	}

	if len(urls) > 0 {
		vm.notifier.Success(fmt.Sprintf("%d Bilder erfolgreich hochgeladen!", len(urls)))
	} else {
		vm.notifier.Info("Keine Bilder hochgeladen.")
	}

	vm.loadImages(ctx, true)
}
