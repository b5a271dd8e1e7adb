// SPDX-License-Identifier: Apache-2.0

package run

import (
	"bufio"
	"fmt"
	"io"
	"strings"

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
		false,
		"treat a ref matching no bootstrap entry as successfully verified rather than as NoRulesDefined",
	)
}

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

	updates, err := parseUpdates(cmd.InOrStdin())
	if err != nil {
		return err
	}

	for _, u := range updates {
		if u.old.Equal(u.new) {
			continue
		}
		if u.new.IsZero() {
			continue
		}
		if err := v.VerifyRefUpdate(u.ref, u.new, o.allowUnprotected); err != nil {
			return err
		}
	}

	return nil
}

type refUpdate struct {
	old, new gitinterface.Hash
	ref      string
}

// parseUpdates reads the reference-transaction hook protocol (spec.md §6):
// one "<old-sha> <new-sha> <ref-name>" line per updated reference.
func parseUpdates(r io.Reader) ([]refUpdate, error) {
	var updates []refUpdate

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}

		old, err := gitinterface.NewHash(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid old-sha %q: %w", fields[0], err)
		}
		newRev, err := gitinterface.NewHash(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid new-sha %q: %w", fields[1], err)
		}

		updates = append(updates, refUpdate{old: old, new: newRev, ref: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read hook input: %w", err)
	}

	return updates, nil
}

// New builds the hook run subcommand: the actual reference-transaction
// hook entry point, invoked by the script 'bark hook install' writes.
func New() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:               "run",
		Short:             "Verify the reference updates passed on stdin, as a reference-transaction hook",
		Args:              cobra.NoArgs,
		RunE:              o.Run,
		DisableAutoGenTag: true,
	}
	o.AddFlags(cmd)

	return cmd
}
