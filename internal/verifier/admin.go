// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"errors"
	"fmt"

	"github.com/barkvcs/bark/internal/cache"
	"github.com/barkvcs/bark/internal/engine"
	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/policy"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/barkvcs/bark/internal/rulerun"
)

// resolve validates the admin branch under the persisted bootstrap (spec.md
// §4.G, first paragraph), then resolves ref against the resulting policy
// document. ref itself is special-cased to policy.AdminRef: its own
// governing rules come from the document's top-level bark_rules entry
// rather than from ResolveRef, and its bootstrap is the persisted one, not
// a project entry's.
func (v *Verifier) resolve(ref string) ([]policy.Match, error) {
	adminBootstrap, err := v.Project.Bootstrap()
	if err != nil {
		return nil, err
	}

	doc, err := v.verifyAdminBranch(adminBootstrap)
	if err != nil {
		return nil, err
	}

	if ref == policy.AdminRef {
		refRule, err := policy.AdminRuleData(doc)
		if err != nil {
			return nil, fmt.Errorf("unable to parse bark_rules entry: %w", err)
		}
		return []policy.Match{{Bootstrap: adminBootstrap, RefRule: refRule}}, nil
	}

	return policy.ResolveRef(doc, ref)
}

// verifyAdminBranch runs the commit-rule walk over refs/heads/bark_rules
// under bootstrap, installing any rule modules requirements.txt names as
// each commit is trusted, then returns the parsed policy document at its
// head.
func (v *Verifier) verifyAdminBranch(bootstrap gitinterface.Hash) (*policy.BarkRulesDocument, error) {
	head, err := v.Project.Repo.GetReference(policy.AdminRef)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", policy.AdminRef, err)
	}

	c, err := v.Project.OpenCache(bootstrap)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache for admin bootstrap %s: %w", bootstrap, err)
	}
	defer c.Close()

	onValid := func(repo *gitinterface.Repository, commit gitinterface.Hash) error {
		return policy.InstallModules(repo, commit, v.Registry)
	}

	if err := v.runWalk(c, bootstrap, head, true, onValid); err != nil {
		return nil, fmt.Errorf("admin branch %s failed verification: %w", policy.AdminRef, err)
	}

	return policy.LoadBarkRulesDocument(v.Project.Repo, head)
}

// verifyMatch runs one project entry's commit-rule walk followed by its ref
// rule (ANDed with the canonical fast-forward-only precondition) against
// head.
func (v *Verifier) verifyMatch(match policy.Match, ref string, head gitinterface.Hash) error {
	c, err := v.Project.OpenCache(match.Bootstrap)
	if err != nil {
		return fmt.Errorf("unable to open cache for bootstrap %s: %w", match.Bootstrap, err)
	}
	defer c.Close()

	if err := v.runWalk(c, match.Bootstrap, head, false, nil); err != nil {
		var ve *engine.ViolationError
		if errors.As(err, &ve) {
			return &ViolatedRefError{Ref: ref, Head: head, Violation: ve.Violation}
		}
		return fmt.Errorf("commit-rule walk for %s under bootstrap %s: %w", ref, match.Bootstrap, err)
	}

	refRule, err := rulerun.LoadRefRule(match.RefRule, v.Registry, match.Bootstrap, c)
	if err != nil {
		return fmt.Errorf("unable to construct ref rule for %s under bootstrap %s: %w", ref, match.Bootstrap, err)
	}

	// fast-forward-only has no document spelling of its own (spec.md
	// §4.F), so it's always ANDed in alongside whatever the entry names.
	combined := rulerun.CombineRefRules([]ruledata.RefRule{engine.FastForwardOnly{}, refRule})

	if violation := combined.Validate(v.Project.Repo, head, ref); violation != nil {
		return &ViolatedRefError{Ref: ref, Head: head, Violation: violation}
	}
	return nil
}

func (v *Verifier) runWalk(c *cache.Cache, bootstrap, head gitinterface.Hash, strict bool, onValid engine.OnValidHook) error {
	w := &engine.Walk{
		Repo:      v.Project.Repo,
		Registry:  v.Registry,
		Cache:     c,
		LoadRules: policy.NewCommitRulesLoader(strict),
		OnValid:   onValid,
		Cancelled: v.Cancelled,
	}
	return w.Run(bootstrap, head)
}
