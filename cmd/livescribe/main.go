// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     main
// Description: Entry point of the livescribe command
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package main

import (
	"os"

	"github.com/msto63/livescribe/cmd/livescribe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
