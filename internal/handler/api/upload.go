// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
)

// maxUploadSize bounds multipart image uploads (10 MB).
const maxUploadSize = 10 << 20

// UploadImage accepts a multipart image, re-encodes it, and stores it
// with resized variants.
// POST /api/v1/upload/image (field "image")
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing image field")
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && !h.processor.IsSupportedType(contentType) {
		WriteError(w, http.StatusBadRequest, "Unsupported image type")
		return
	}

	result, err := h.processor.Process(file, header.Filename)
	if err != nil {
		h.logger.Warn("image upload rejected", "filename", header.Filename, "error", err)
		WriteError(w, http.StatusBadRequest, "Could not process image")
		return
	}

	h.logger.Info("image uploaded", "upload_id", result.ID,
		"size", result.Size, "dimensions", result.Width)

	WriteJSON(w, http.StatusCreated, struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
		Data    any    `json:"data"`
	}{
		Success: true,
		URL:     result.URL,
		Data:    result,
	})
}
