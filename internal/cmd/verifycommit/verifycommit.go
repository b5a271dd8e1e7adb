// SPDX-License-Identifier: Apache-2.0

package verifycommit

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
	bootstrap string
}

func (o *options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&o.bootstrap,
		"bootstrap",
		"",
		"bootstrap commit to walk from; defaults to the persisted trust anchor",
	)
}

func (o *options) Run(cmd *cobra.Command, args []string) error {
	target, err := gitinterface.NewHash(args[0])
	if err != nil {
		return fmt.Errorf("invalid commit %q: %w", args[0], err)
	}

	proj, err := project.Open(".")
	if err != nil {
		return err
	}

	bootstrap, err := resolveBootstrap(proj, o.bootstrap)
	if err != nil {
		return err
	}

	registry := ruledata.NewRegistry()
	if err := builtin.RegisterAll(registry); err != nil {
		return err
	}

	v := verifier.New(proj, registry)
	if err := v.VerifyCommit(target, bootstrap); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: verified against bootstrap %s\n", target, bootstrap)
	return nil
}

func resolveBootstrap(proj *project.Project, flag string) (gitinterface.Hash, error) {
	if flag == "" {
		return proj.Bootstrap()
	}
	return gitinterface.NewHash(flag)
}

// New builds the verify-commit subcommand.
func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:               "verify-commit <commit>",
		Short:             "Verify a single commit against a bootstrap's commit rules, bypassing policy resolution",
		Args:              cobra.ExactArgs(1),
		RunE:              o.Run,
		DisableAutoGenTag: true,
	}
	o.AddFlags(cmd)

	return cmd
}
