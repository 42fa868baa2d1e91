// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

// Injected at build time via ldflags.
var (
	Version   = "dev"     // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit = "unknown" // Short git commit hash
	BuildTime = "unknown" // Build timestamp in RFC3339 format
)
