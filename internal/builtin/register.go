// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"fmt"

	"github.com/barkvcs/bark/internal/ruledata"
)

// RegisterAll installs every built-in commit rule from spec.md §4.I into
// registry under its spec-given id. It's called once per process, before any
// policy document is resolved against the registry.
func RegisterAll(registry *ruledata.Registry) error {
	rules := map[string]ruledata.CommitRuleConstructor{
		RequireSignatureID:       newRequireSignature,
		RequireApprovalID:        newRequireApproval,
		InvalidParentsID:         newInvalidParents,
		RequireNumberOfParentsID: newRequireNumberOfParents,
		FileNotModifiedID:        newFileNotModified,
		AlwaysPassID:             newAlwaysPass,
		AlwaysFailID:             newAlwaysFail,
	}

	for id, constructor := range rules {
		if err := registry.RegisterCommitRule(id, constructor); err != nil {
			return fmt.Errorf("registering builtin rule %q: %w", id, err)
		}
	}
	return nil
}
