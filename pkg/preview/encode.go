package preview

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Encoder writes a rendered preview in one image format.
type Encoder interface {
	// Extension is the file suffix including the dot.
	Extension() string
	Encode(w io.Writer, img image.Image) error
}

// PNGEncoder writes PNG files.
type PNGEncoder struct{}

func (PNGEncoder) Extension() string { return ".png" }

func (PNGEncoder) Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

// WebPEncoder writes lossless WebP files.
type WebPEncoder struct{}

func (WebPEncoder) Extension() string { return ".webp" }

func (WebPEncoder) Encode(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

// NewEncoder returns the encoder for format ("png" or "webp").
func NewEncoder(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "png":
		return PNGEncoder{}, nil
	case "webp":
		return WebPEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported preview format: %s", format)
	}
}
