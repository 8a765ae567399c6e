package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// PreviewBound is the box a preview raster must fit into.
const PreviewBound = 300

// Preview decodes an image, scales it down to fit PreviewBound on both axes
// (never upscales), and returns it as an inline JPEG data URI.
func Preview(data []byte) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode preview: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > PreviewBound || h > PreviewBound {
		scale := float64(PreviewBound) / float64(w)
		if h > w {
			scale = float64(PreviewBound) / float64(h)
		}
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
