// SPDX-License-Identifier: Apache-2.0

package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/barkvcs/bark/internal/project"
	"github.com/spf13/cobra"
)

const hookName = "reference-transaction"

var hookScript = []byte(`#!/bin/sh
# Installed by 'bark hook install'. Do not edit by hand; rerun that
# command with --force after upgrading bark instead.
exec bark hook run "$@"
`)

type options struct {
	force bool
}

func (o *options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(
		&o.force,
		"force",
		"f",
		false,
		"overwrite an existing reference-transaction hook",
	)
}

func (o *options) Run(cmd *cobra.Command, _ []string) error {
	proj, err := project.Open(".")
	if err != nil {
		return err
	}

	hookDir := filepath.Join(proj.Repo.GetGitDir(), "hooks")
	if err := os.MkdirAll(hookDir, 0o750); err != nil {
		return fmt.Errorf("unable to create hooks directory: %w", err)
	}

	hookPath := filepath.Join(hookDir, hookName)
	exists, err := fileExists(hookPath)
	if err != nil {
		return fmt.Errorf("unable to check for existing %s hook: %w", hookName, err)
	}
	if exists && !o.force {
		return fmt.Errorf("%s hook already exists at %s; use --force to overwrite", hookName, hookPath)
	}

	if err := os.WriteFile(hookPath, hookScript, 0o700); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write %s hook: %w", hookName, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "installed %s hook at %s\n", hookName, hookPath)
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// New builds the hook install subcommand.
func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:               "install",
		Short:             "Install the reference-transaction hook that enforces bark_rules on every ref update",
		Args:              cobra.NoArgs,
		RunE:              o.Run,
		DisableAutoGenTag: true,
	}
	o.AddFlags(cmd)

	return cmd
}
