// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Command lexdeskctl works with petition templates from the terminal: it
// scans, previews and renders local template files and asks a running
// server to retry failed deliveries.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lexdesk/internal/config"
	"lexdesk/internal/logger"
)

// errInvalidData is returned by render when the data fails validation. The
// errors themselves have already been printed.
var errInvalidData = errors.New("data failed validation")

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	// Diagnostics go to stderr so documents can be piped from stdout.
	slog.SetDefault(logger.New(logger.Config{Level: envOr("LOG_LEVEL", "warn"), Output: os.Stderr}))

	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalidData) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lexdeskctl",
		Short:         "Scan, preview and render petition templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newScanCmd(),
		newPreviewCmd(),
		newRenderCmd(),
		newRetryCmd(),
	)
	return root
}
