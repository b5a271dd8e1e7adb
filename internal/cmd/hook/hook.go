// SPDX-License-Identifier: Apache-2.0

// Package hook groups the reference-transaction hook's installer and its
// actual entry point (spec.md §6's hook protocol).
package hook

import (
	"github.com/barkvcs/bark/internal/cmd/hook/install"
	"github.com/barkvcs/bark/internal/cmd/hook/run"
	"github.com/spf13/cobra"
)

// New builds the hook parent command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "hook",
		Short:             "Manage and run the reference-transaction hook",
		DisableAutoGenTag: true,
	}

	cmd.AddCommand(install.New())
	cmd.AddCommand(run.New())

	return cmd
}
