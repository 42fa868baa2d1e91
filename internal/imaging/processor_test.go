// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	data := encodeJPEG(t, createTestImage(100, 60))
	result, err := p.Process(bytes.NewReader(data), "beach photo.jpg")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if result.Width != 100 || result.Height != 60 {
		t.Errorf("dimensions = %dx%d, want 100x60", result.Width, result.Height)
	}
	if result.MimeType != "image/jpeg" {
		t.Errorf("mime type = %q", result.MimeType)
	}
	if result.ID == "" {
		t.Error("missing upload id")
	}

	stored := filepath.Join(dir, "originals", result.ID, "beach photo.jpg")
	if _, err := os.Stat(stored); err != nil {
		t.Errorf("original not stored: %v", err)
	}

	// small source: no variants created
	if _, err := os.Stat(filepath.Join(dir, "thumb", result.ID)); !os.IsNotExist(err) {
		t.Error("thumb variant created for image smaller than variant size")
	}
}

func TestProcessCreatesVariants(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	data := encodeJPEG(t, createTestImage(2000, 1200))
	result, err := p.Process(bytes.NewReader(data), "panorama.jpg")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	for _, variant := range []string{"hero", "thumb"} {
		path := filepath.Join(dir, variant, result.ID, "panorama.jpg")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s variant not stored: %v", variant, err)
		}
	}
}

func TestProcessPNG(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(50, 50)); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}

	result, err := p.Process(&buf, "logo.png")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.MimeType != "image/png" {
		t.Errorf("mime type = %q, want image/png", result.MimeType)
	}
}

func TestProcessRejectsNonImage(t *testing.T) {
	p := NewProcessor(t.TempDir())

	_, err := p.Process(bytes.NewReader([]byte("not an image at all")), "file.txt")
	if err == nil {
		t.Error("Process accepted non-image data")
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	data := encodeJPEG(t, createTestImage(2000, 1200))
	result, err := p.Process(bytes.NewReader(data), "temple.jpg")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if err := p.Delete(result.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "originals", result.ID)); !os.IsNotExist(err) {
		t.Error("original directory still exists after delete")
	}

	// invalid ids are refused before touching the filesystem
	if err := p.Delete("../../etc"); err == nil {
		t.Error("Delete accepted a non-UUID id")
	}
}

func TestIsSupportedType(t *testing.T) {
	p := NewProcessor("./uploads")

	tests := []struct {
		mimeType string
		want     bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/gif", true},
		{"image/webp", true},
		{"application/pdf", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := p.IsSupportedType(tt.mimeType); got != tt.want {
				t.Errorf("IsSupportedType(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg magic bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png magic bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif magic bytes", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoredFilename(t *testing.T) {
	tests := []struct {
		filename string
		format   string
		want     string
	}{
		{"photo.jpeg", "jpeg", "photo.jpg"},
		{"photo.webp", "webp", "photo.jpg"},
		{"logo.png", "png", "logo.png"},
		{"anim.gif", "gif", "anim.gif"},
		{"../../escape.png", "png", "escape.png"},
		{"", "jpeg", "image.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"/"+tt.format, func(t *testing.T) {
			if got := storedFilename(tt.filename, tt.format); got != tt.want {
				t.Errorf("storedFilename(%q, %q) = %q, want %q", tt.filename, tt.format, got, tt.want)
			}
		})
	}
}
