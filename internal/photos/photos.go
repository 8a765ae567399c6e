// Package photos uploads and lists guest images in the shared bucket.
package photos

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mvogel/vogelwedding/internal/imaging"
	"github.com/mvogel/vogelwedding/internal/model"
)

// The bucket is partitioned into two folders; which one a caller sees depends
// only on the access tier. This is the sole access check the gallery performs.
const (
	FolderCeremony = "Ceremony"
	FolderParty    = "Party"
)

// SignedURLTTL bounds how long a returned image link stays valid.
const SignedURLTTL = time.Hour

// File is a staged upload source.
type File interface {
	Name() string
	ModTime() time.Time
	Open() (io.ReadCloser, error)
}

// ObjectStore is the slice of the platform storage API this service needs.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, objectPath string, overwrite bool) error
	List(ctx context.Context, folder string, limit, offset int) ([]model.StorageObject, error)
	SignedURL(objectPath string, ttl time.Duration) (string, error)
}

// Service reads and writes photos through the external object store.
type Service struct {
	store ObjectStore
	log   *zap.Logger
}

// NewService constructs a photo service.
func NewService(store ObjectStore, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// FolderForTier maps an access tier to its photo folder.
func FolderForTier(tier model.AccessTier) string {
	if tier >= model.TierGuestInvited {
		return FolderParty
	}
	return FolderCeremony
}

// ListImageURLs returns one page of signed image links for a folder. The
// listing arrives sorted by name descending, which is reverse-chronological
// because object names carry a zero-padded capture-time prefix. Signed URLs
// are resolved concurrently and gathered back in listing order.
func (s *Service) ListImageURLs(ctx context.Context, folder string, limit, offset int) ([]string, error) {
	objs, err := s.store.List(ctx, folder, limit, offset)
	if err != nil {
		return nil, err
	}

	var images []model.StorageObject
	for _, o := range objs {
		if o.Name != "" && isImageName(o.Name) {
			images = append(images, o)
		}
	}

	urls := make([]string, len(images))
	var wg sync.WaitGroup
	for i, o := range images {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			u, err := s.store.SignedURL(folder+"/"+name, SignedURLTTL)
			if err != nil {
				s.log.Warn("sign image url", zap.String("name", name), zap.Error(err))
				return
			}
			urls[i] = u
		}(i, o.Name)
	}
	wg.Wait()

	out := urls[:0]
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

// UploadFiles stores the given files one at a time and returns the signed
// URLs of the uploads that succeeded. Uploads are strictly sequential:
// concurrent reads of the underlying file handles are not reliable. progress
// is invoked after every processed file with the number handled so far.
func (s *Service) UploadFiles(ctx context.Context, files []File, folder string, progress func(done int)) ([]string, error) {
	var urls []string
	for i, f := range files {
		url, err := s.uploadOne(ctx, f, folder)
		if err != nil {
			s.log.Warn("upload failed", zap.String("file", f.Name()), zap.Error(err))
		} else {
			urls = append(urls, url)
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	return urls, nil
}

func (s *Service) uploadOne(ctx context.Context, f File, folder string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", err
	}

	captured := imaging.CaptureTime(bytes.NewReader(data), f.ModTime())
	name, err := imaging.ObjectName(f.Name(), captured)
	if err != nil {
		return "", err
	}

	objectPath := strings.Trim(folder, "/") + "/" + name
	if err := s.store.Upload(ctx, data, objectPath, false); err != nil {
		return "", err
	}
	return s.store.SignedURL(objectPath, SignedURLTTL)
}

func isImageName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".heic", ".heif", ".webp":
		return true
	}
	return false
}
