package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the webp decoder used by imaging.Decode
)

const (
	MaxScreenshotWidth  = 1920
	ScreenshotMediaType = "image/jpeg"
	ScreenshotExt       = ".jpg"

	// MaxScreenshotBytes caps the encoded upload.
	MaxScreenshotBytes = 10 << 20
	// MaxScreenshotPixels caps the decoded size (width*height) declared by the image header.
	MaxScreenshotPixels = 40_000_000
)

var (
	ErrUnsupportedImage = errors.New("screenshot is not a supported image (png, jpeg, gif, webp)")
	ErrImageTooLarge    = errors.New("screenshot is too large")
)

// NormalizeScreenshot decodes an uploaded screenshot, fixes its EXIF
// orientation, caps the width and re-encodes it as JPEG. The header is
// checked against MaxScreenshotPixels before any pixel is decoded.
func NormalizeScreenshot(r io.Reader) (*bytes.Buffer, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxScreenshotBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	if len(data) > MaxScreenshotBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, MaxScreenshotBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxScreenshotPixels {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if img.Bounds().Dx() > MaxScreenshotWidth {
		img = imaging.Resize(img, MaxScreenshotWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return &buf, nil
}
