// SPDX-License-Identifier: Apache-2.0

package setbootstrap

import (
	"fmt"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/project"
	"github.com/spf13/cobra"
)

type options struct{}

func (o *options) Run(cmd *cobra.Command, args []string) error {
	bootstrap, err := gitinterface.NewHash(args[0])
	if err != nil {
		return fmt.Errorf("invalid commit %q: %w", args[0], err)
	}

	proj, err := project.Open(".")
	if err != nil {
		return err
	}

	if err := proj.SetBootstrap(bootstrap); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "bark_rules bootstrap set to %s\n", bootstrap)
	return nil
}

// New builds the set-bootstrap subcommand.
func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:               "set-bootstrap <commit>",
		Short:             "Set the commit on refs/heads/bark_rules that verification trusts as the root of the admin branch",
		Args:              cobra.ExactArgs(1),
		RunE:              o.Run,
		DisableAutoGenTag: true,
	}

	return cmd
}
