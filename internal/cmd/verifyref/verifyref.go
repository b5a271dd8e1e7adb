// SPDX-License-Identifier: Apache-2.0

package verifyref

import (
	"fmt"

	"github.com/barkvcs/bark/internal/builtin"
	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/project"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/barkvcs/bark/internal/verifier"
	"github.com/spf13/cobra"
)

type options struct {
	allowUnprotected bool
}

func (o *options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(
		&o.allowUnprotected,
		"allow-unprotected",
		true,
		"treat a ref matching no bootstrap entry as successfully verified rather than as NoRulesDefined",
	)
}

func (o *options) Run(cmd *cobra.Command, args []string) error {
	ref := args[0]

	proj, err := project.Open(".")
	if err != nil {
		return err
	}

	head, err := proj.Repo.GetReference(ref)
	if err != nil {
		return fmt.Errorf("unable to resolve current tip of %s: %w", ref, err)
	}
	if len(args) > 1 {
		head, err = gitinterface.NewHash(args[1])
		if err != nil {
			return fmt.Errorf("invalid commit %q: %w", args[1], err)
		}
	}

	registry := ruledata.NewRegistry()
	if err := builtin.RegisterAll(registry); err != nil {
		return err
	}

	v := verifier.New(proj, registry)
	if err := v.VerifyRef(ref, head, o.allowUnprotected); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s at %s: verified\n", ref, head)
	return nil
}

// New builds the verify-ref subcommand.
func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:               "verify-ref <ref> [commit]",
		Short:             "Verify a reference against its governing commit and reference rules",
		Args:              cobra.RangeArgs(1, 2),
		RunE:              o.Run,
		DisableAutoGenTag: true,
	}
	o.AddFlags(cmd)

	return cmd
}
