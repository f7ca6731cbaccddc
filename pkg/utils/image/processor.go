package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
)

const (
	MaxImageSize = 10 * 1024 * 1024 // 10MB
	MaxDimension = 2560
	quality      = 85
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Process decodes a jpeg, png or webp upload and re-encodes it as lossy webp.
// Images larger than MaxDimension on either side are rejected rather than
// resized.
func Process(src io.Reader) (*bytes.Buffer, string, error) {
	img, format, err := image.Decode(src)
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image: %w", err)
	}

	switch format {
	case "jpeg", "png", "webp":
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		return nil, "", fmt.Errorf("image is %dx%d, maximum is %dx%d", b.Dx(), b.Dy(), MaxDimension, MaxDimension)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("could not encode image: %w", err)
	}

	return buf, "image/webp", nil
}
