package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp" // register WebP decoding
)

var (
	ErrInvalidFormat     = errors.New("invalid image format")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	ErrCorruptedImage    = errors.New("corrupted image")
)

// Dimensions holds a decoded image's width/height in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// GetDimensions decodes just the image header to report width/height.
func GetDimensions(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to decode image config: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// Validate decodes the full image to confirm it isn't truncated or
// corrupted, applying the min/max pixel bounds a caller supplies.
func Validate(data []byte, minWidth, minHeight, maxWidth, maxHeight int) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return ErrInvalidFormat
		}
		return fmt.Errorf("%w: %v", ErrCorruptedImage, err)
	}

	switch format {
	case "jpeg", "png", "gif", "webp":
	default:
		return fmt.Errorf("%w: unsupported format %s", ErrInvalidFormat, format)
	}

	if cfg.Width < minWidth || cfg.Height < minHeight {
		return fmt.Errorf("%w: image too small (%dx%d), minimum is %dx%d",
			ErrInvalidDimensions, cfg.Width, cfg.Height, minWidth, minHeight)
	}
	if cfg.Width > maxWidth || cfg.Height > maxHeight {
		return fmt.Errorf("%w: image too large (%dx%d), maximum is %dx%d",
			ErrInvalidDimensions, cfg.Width, cfg.Height, maxWidth, maxHeight)
	}

	if _, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptedImage, err)
	}

	return nil
}

// MakeThumbnail fits the source image within a square bounding box
// (preserving aspect ratio, auto-correcting EXIF orientation) and encodes
// it as WebP.
func MakeThumbnail(data []byte, cfg Config) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fit(src, cfg.ThumbnailBox, cfg.ThumbnailBox, imaging.Lanczos)

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, cfg.WebPQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, thumb, options); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}

	return buf.Bytes(), nil
}
