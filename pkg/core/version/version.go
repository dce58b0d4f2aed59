// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     version
// Description: Build version information
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version is the release version. Overridden at build time via
// -ldflags "-X github.com/msto63/livescribe/pkg/core/version.Version=..."
var Version = "0.1.0"

// Commit is the source revision, set at build time
var Commit = "unknown"

// String returns a one-line version description
func String() string {
	return fmt.Sprintf("livescribe %s (%s, %s %s/%s)", Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
