// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts Markdown authored in blog content blocks to
// sanitized HTML for public API responses.
package render

import (
	"bytes"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	initOnce  sync.Once
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
)

func setup() {
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	sanitizer = bluemonday.UGCPolicy()
}

// Markdown renders a Markdown string to sanitized HTML. Conversion errors
// fall back to the sanitized source text rather than failing the request.
func Markdown(source string) string {
	initOnce.Do(setup)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return sanitizer.Sanitize(source)
	}
	return sanitizer.Sanitize(buf.String())
}
