// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"errors"
	"fmt"

	"github.com/barkvcs/bark/internal/engine"
	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// NewCommitRulesLoader returns an engine.CommitRulesLoader implementing
// spec.md §7's admin-branch-vs-everywhere-else distinction: a missing
// commit_rules.yaml is a hard error when strict is true (the admin branch),
// and an empty rule set otherwise. A file that exists but fails to parse is
// always InvalidCommitRules, strict or not.
func NewCommitRulesLoader(strict bool) engine.CommitRulesLoader {
	return func(repo *gitinterface.Repository, commit gitinterface.Hash) (ruledata.RuleData, error) {
		doc, err := LoadCommitRulesDocument(repo, commit)
		if err != nil {
			if errors.Is(err, gitinterface.ErrTreeDoesNotHavePath) {
				if strict {
					return ruledata.RuleData{}, fmt.Errorf("commit %s carries no %s: %w", commit, engine.CommitRulesPath, err)
				}
				return ruledata.RuleData{ID: ruledata.KindNone}, nil
			}
			return ruledata.RuleData{}, err
		}

		return ruledata.ParseList(doc.Rules)
	}
}
