// SPDX-License-Identifier: Apache-2.0

// Package root assembles bark's command tree.
package root

import (
	"log/slog"
	"os"

	"github.com/barkvcs/bark/internal/cmd/hook"
	"github.com/barkvcs/bark/internal/cmd/trust"
	"github.com/barkvcs/bark/internal/cmd/verifyall"
	"github.com/barkvcs/bark/internal/cmd/verifycommit"
	"github.com/barkvcs/bark/internal/cmd/verifyref"
	"github.com/spf13/cobra"
)

type options struct {
	verbose bool
}

func (o *options) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(
		&o.verbose,
		"verbose",
		false,
		"enable debug logging",
	)
}

func (o *options) PreRunE(_ *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}

// New builds the bark root command.
func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:               "bark",
		Short:             "Enforce declarative commit and reference policies on a Git repository",
		Long:              `bark verifies that every commit reachable on a protected reference satisfies the commit rules carried by its nearest trusted ancestors, and that the reference itself satisfies its reference rules. Rules are stored as commits on the repository's own bark_rules branch, so the rule set is versioned and verified by the same machinery it governs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		PersistentPreRunE: o.PreRunE,
	}
	o.AddFlags(cmd)

	cmd.AddCommand(verifyref.New())
	cmd.AddCommand(verifycommit.New())
	cmd.AddCommand(verifyall.New())
	cmd.AddCommand(trust.New())
	cmd.AddCommand(hook.New())

	return cmd
}
