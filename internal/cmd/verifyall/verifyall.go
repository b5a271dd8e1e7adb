// SPDX-License-Identifier: Apache-2.0

package verifyall

import (
	"fmt"

	"github.com/barkvcs/bark/internal/builtin"
	"github.com/barkvcs/bark/internal/project"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/barkvcs/bark/internal/verifier"
	"github.com/spf13/cobra"
)

type options struct{}

func (o *options) Run(cmd *cobra.Command, _ []string) error {
	proj, err := project.Open(".")
	if err != nil {
		return err
	}

	registry := ruledata.NewRegistry()
	if err := builtin.RegisterAll(registry); err != nil {
		return err
	}

	v := verifier.New(proj, registry)
	if err := v.VerifyAll(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "all references verified")
	return nil
}

// New builds the verify-all subcommand.
func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:               "verify-all",
		Short:             "Verify every reference in the repository currently governed by the bark_rules policy",
		Args:              cobra.NoArgs,
		RunE:              o.Run,
		DisableAutoGenTag: true,
	}

	return cmd
}
