// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes uploaded blog images: EXIF-aware
// re-encoding, metadata stripping, and resized variants.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Variant configurations. Hero images are fitted for the blog header,
// thumbs for listing cards.
var variants = map[string]struct {
	Width   int
	Height  int
	Quality int
}{
	"hero":  {1600, 900, 85},
	"thumb": {480, 320, 80},
}

// Result describes a stored upload.
type Result struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Processor re-encodes and stores uploaded images under uploadDir.
// Re-encoding via the pure Go codecs drops EXIF metadata, so uploads
// never leak camera GPS coordinates.
type Processor struct {
	uploadDir string
}

// NewProcessor creates an image processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// Process reads an uploaded image, normalizes its orientation,
// re-encodes it, and stores the original plus resized variants under a
// fresh UUID. The returned URL points at the stored original.
func (p *Processor) Process(reader io.Reader, filename string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	processed, err := encodeImage(img, format, 95)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	id := uuid.NewString()
	storedName := storedFilename(filename, format)

	if _, err := p.save(filepath.Join("originals", id), storedName, processed); err != nil {
		return nil, fmt.Errorf("saving original image: %w", err)
	}

	for name, cfg := range variants {
		src := img
		if width <= cfg.Width && height <= cfg.Height {
			continue
		}
		resized := imaging.Fit(src, cfg.Width, cfg.Height, imaging.Lanczos)
		encoded, err := encodeImage(resized, format, cfg.Quality)
		if err != nil {
			return nil, fmt.Errorf("encoding %s variant: %w", name, err)
		}
		if _, err := p.save(filepath.Join(name, id), storedName, encoded); err != nil {
			return nil, fmt.Errorf("saving %s variant: %w", name, err)
		}
	}

	return &Result{
		ID:       id,
		URL:      "/uploads/originals/" + id + "/" + storedName,
		Width:    width,
		Height:   height,
		MimeType: formatToMimeType(format),
		Size:     int64(len(processed)),
	}, nil
}

// Delete removes the original and all variants of an upload.
func (p *Processor) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid upload id")
	}

	dirs := []string{"originals"}
	for name := range variants {
		dirs = append(dirs, name)
	}
	for _, dir := range dirs {
		target := filepath.Join(p.uploadDir, dir, id)
		if err := os.RemoveAll(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting %s: %w", dir, err)
		}
	}
	return nil
}

// IsSupportedType reports whether a MIME type can be processed.
func (p *Processor) IsSupportedType(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// storedFilename sanitizes the client filename and fixes the extension
// to match the stored encoding.
func storedFilename(filename, format string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == ".." {
		base = "image"
	}

	ext := "." + format
	if format == "jpeg" || format == "webp" {
		// webp is re-encoded as JPEG
		ext = ".jpg"
	}
	return base + ext
}

// readExifOrientation reads the EXIF orientation tag. Returns 1
// (normal) if it cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation normalizes an image according to its EXIF
// orientation value (1 through 8).
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image with the given format and quality. WebP
// input is written back out as JPEG since pure Go has no WebP encoder.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// formatToMimeType converts a format name to its MIME type.
func formatToMimeType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		// webp uploads are stored as JPEG
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// save writes data under uploadDir/subDir/filename, refusing any path
// that escapes the upload root.
func (p *Processor) save(subDir, filename string, data []byte) (string, error) {
	safeFilename := filepath.Base(filename)
	if safeFilename == "." || safeFilename == ".." || safeFilename == "" {
		return "", fmt.Errorf("invalid filename")
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.Contains(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return "", fmt.Errorf("invalid subdirectory path")
	}

	absBase, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory: %w", err)
	}

	absTarget := filepath.Join(absBase, cleanSubDir)
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(absTarget, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	fullPath := filepath.Join(absTarget, safeFilename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return fullPath, nil
}
