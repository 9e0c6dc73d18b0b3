package imageutil

import (
	"bytes"
	"path/filepath"
	"strings"
)

// DetectType classifies image bytes by magic-byte signature first, falling
// back to the file extension when the signature is inconclusive. Returns
// the canonical MIME type and whether classification succeeded at all.
func DetectType(filename string, data []byte) (mime string, ok bool) {
	if m, ok := detectByMagic(data); ok {
		return m, true
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	case ".png":
		return "image/png", true
	case ".gif":
		return "image/gif", true
	case ".webp":
		return "image/webp", true
	case ".heic", ".heif":
		return "image/heic", true
	}

	return "", false
}

func detectByMagic(data []byte) (string, bool) {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg", true
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png", true
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "image/gif", true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp", true
	case isHEIC(data):
		return "image/heic", true
	}
	return "", false
}

// isHEIC scans the ISO base media file format "ftyp" box for an HEIC/HEIF
// brand. The box starts at offset 4 with a 4-byte size-independent "ftyp"
// tag, followed by a 4-byte major brand.
func isHEIC(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	brand := string(data[8:12])
	switch brand {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
		return true
	}
	return false
}
