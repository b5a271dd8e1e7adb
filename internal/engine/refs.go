// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// VerifyRef runs rules against a resolved ref update, per spec.md §4.F.
// head is the proposed tip; rule implementations that care about the
// ref's prior tip (fast-forward-only) read it themselves via repo, not
// through a parameter, since it must reflect the *existing* state at
// verification time regardless of whether the update has already landed.
func VerifyRef(repo *gitinterface.Repository, rule ruledata.RefRule, head gitinterface.Hash, ref string) error {
	if violation := rule.Validate(repo, head, ref); violation != nil {
		return fmt.Errorf("ref %s rejected: %s", ref, violation.Message)
	}
	return nil
}

// FastForwardOnly is the canonical built-in ref rule named in spec.md
// §4.F: an update must be a fast-forward of the ref's current tip. A ref
// creation (current tip is the zero hash) is always accepted.
type FastForwardOnly struct{}

func (FastForwardOnly) Validate(repo *gitinterface.Repository, head gitinterface.Hash, ref string) *ruledata.RuleViolation {
	current, err := repo.GetReference(ref)
	if err != nil {
		if errors.Is(err, gitinterface.ErrReferenceNotFound) {
			return nil
		}
		return ruledata.NewViolation(fmt.Sprintf("unable to read current tip of %s: %v", ref, err))
	}

	if current.IsZero() {
		return nil
	}

	isAncestor, err := repo.IsAncestor(current, head)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("unable to check fast-forward of %s: %v", ref, err))
	}
	if !isAncestor {
		return ruledata.NewViolation(fmt.Sprintf("commit is not a descendant of %s", current))
	}

	return nil
}
