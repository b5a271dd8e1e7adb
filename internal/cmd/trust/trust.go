// SPDX-License-Identifier: Apache-2.0

// Package trust groups commands that manage a repository's persisted
// bark_rules bootstrap, the local operator's choice of trust anchor
// (spec.md §4.G, §6).
package trust

import (
	"github.com/barkvcs/bark/internal/cmd/trust/setbootstrap"
	"github.com/spf13/cobra"
)

// New builds the trust parent command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "trust",
		Short:             "Manage this repository's trusted bark_rules bootstrap",
		DisableAutoGenTag: true,
	}

	cmd.AddCommand(setbootstrap.New())

	return cmd
}
