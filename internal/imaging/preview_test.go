package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodePreview(t *testing.T, uri string) image.Image {
	t.Helper()
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("want data URI, got %q", uri[:min(len(uri), 40)])
	}
	raw, err := base64.StdEncoding.DecodeString(uri[len(prefix):])
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	return img
}

func TestPreview_DownscalesToBound(t *testing.T) {
	t.Parallel()

	uri, err := Preview(encodePNG(t, 600, 400))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	got := decodePreview(t, uri).Bounds()
	if got.Dx() != 300 || got.Dy() != 200 {
		t.Fatalf("want 300x200, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestPreview_TallImageBoundsHeight(t *testing.T) {
	t.Parallel()

	uri, err := Preview(encodePNG(t, 400, 600))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	got := decodePreview(t, uri).Bounds()
	if got.Dx() != 200 || got.Dy() != 300 {
		t.Fatalf("want 200x300, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestPreview_NeverUpscales(t *testing.T) {
	t.Parallel()

	uri, err := Preview(encodePNG(t, 80, 50))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	got := decodePreview(t, uri).Bounds()
	if got.Dx() != 80 || got.Dy() != 50 {
		t.Fatalf("want original 80x50, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestPreview_RejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := Preview([]byte("not an image")); err == nil {
		t.Fatal("want error for undecodable input")
	}
}

func TestCaptureTime_FallsBackToModTime(t *testing.T) {
	t.Parallel()

	mod := time.Date(2025, 7, 30, 18, 45, 0, 0, time.FixedZone("CEST", 2*3600))
	got := CaptureTime(bytes.NewReader([]byte("no exif here")), mod)
	if !got.Equal(mod) {
		t.Fatalf("want fallback %v, got %v", mod, got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("want UTC result, got %v", got.Location())
	}
}
