package imageutil

import (
	"bytes"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

// PerceptualHash computes a DCT-based perceptual hash (pHash) of the
// decoded image and renders it as a hex string suitable for exact-match
// duplicate detection and storage as the photo's perceptual hash
// (Photo.PerceptualHash).
func PerceptualHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image for hashing: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("failed to compute perceptual hash: %w", err)
	}

	return hash.ToString(), nil
}

// HammingDistance compares two pHash strings produced by PerceptualHash.
// No other package calls it; the upload dedup path and the duplicate
// finder compare perceptual hash strings for exact equality.
func HammingDistance(a, b string) (int, error) {
	ha, err := goimagehash.ImageHashFromString(a)
	if err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", a, err)
	}
	hb, err := goimagehash.ImageHashFromString(b)
	if err != nil {
		return 0, fmt.Errorf("invalid hash %q: %w", b, err)
	}
	return ha.Distance(hb)
}
