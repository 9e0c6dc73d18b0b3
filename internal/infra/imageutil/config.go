// Package imageutil implements the content-classification, thumbnailing,
// perceptual-hashing, and EXIF-extraction primitives shared by the upload
// ingestor and the sync job runner.
package imageutil

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds thumbnailing tunables.
type Config struct {
	ThumbnailBox int     // bounding box side, both dimensions fit within this (default 400)
	WebPQuality  float32 // default 75
}

// DefaultConfig returns the defaults from spec.md section 4.2: a 400x400
// bounding box, WebP output.
func DefaultConfig() Config {
	return Config{
		ThumbnailBox: 400,
		WebPQuality:  75,
	}
}

// LoadConfigFromEnv overlays environment variables onto DefaultConfig.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("PHOTO_THUMBNAIL_BOX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PHOTO_THUMBNAIL_BOX: %w", err)
		}
		if n <= 0 {
			return cfg, fmt.Errorf("PHOTO_THUMBNAIL_BOX must be positive")
		}
		cfg.ThumbnailBox = n
	}

	if v := os.Getenv("PHOTO_WEBP_QUALITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PHOTO_WEBP_QUALITY: %w", err)
		}
		if n < 0 || n > 100 {
			return cfg, fmt.Errorf("PHOTO_WEBP_QUALITY must be between 0 and 100")
		}
		cfg.WebPQuality = float32(n)
	}

	return cfg, nil
}
