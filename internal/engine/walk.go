// SPDX-License-Identifier: Apache-2.0

// Package engine implements the commit-rule walk (spec.md §4.E) and the
// ref-rule gate (§4.F): the DAG traversal that decides, and memoises,
// whether each commit between a bootstrap and a head satisfies the rules
// carried by its nearest trusted ancestors.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/barkvcs/bark/internal/rulerun"
)

const (
	// CommitRulesPath is the path, relative to a commit's tree root, of the
	// YAML file naming that commit's own commit rules.
	CommitRulesPath = ".bark/commit_rules.yaml"
)

var (
	// ErrBootstrapNotAncestor is fatal to the current walk only.
	ErrBootstrapNotAncestor = errors.New("bootstrap is not an ancestor of head")
	// ErrNoValidAncestors signals an internal invariant violation: a commit
	// was reached with no trusted ancestor on any parent path.
	ErrNoValidAncestors = errors.New("no valid ancestor commits found")
	// ErrInvalidCommitRules means a commit's own commit-rules file failed
	// to parse.
	ErrInvalidCommitRules = errors.New("commit rules file failed to parse")
	// ErrCancelled is raised when the caller's cancellation signal fires
	// mid-walk.
	ErrCancelled = errors.New("verification cancelled")
)

// Cache is the subset of *cache.Cache the walk needs. Defined here so the
// engine package doesn't depend on the cache package's on-disk format,
// only its read/write contract.
type Cache interface {
	ruledata.CacheReader
	Has(commit gitinterface.Hash) bool
	Set(commit gitinterface.Hash, valid bool) error
	Remove(commit gitinterface.Hash) error
}

// CommitRulesLoader parses a commit's own commit-rules file into a RuleData
// tree. The policy layer's loader (policy.NewCommitRulesLoader, in
// internal/policy/commitrules.go) treats a missing file as an empty rule set
// (ruledata.RuleData{ID: ruledata.KindNone}, nil) on non-admin refs and
// returns an error for it on the admin branch.
type CommitRulesLoader func(repo *gitinterface.Repository, commit gitinterface.Hash) (ruledata.RuleData, error)

// OnValidHook is invoked once a commit is marked true, in addition to the
// cache write. The policy layer uses this to load rule modules named by a
// newly-trusted admin-branch commit's requirements manifest.
type OnValidHook func(repo *gitinterface.Repository, commit gitinterface.Hash) error

// Walk holds the configuration shared across a single commit-rule
// evaluation (spec.md §4.E). The same Walk can be reused across refs that
// share a bootstrap and registry.
type Walk struct {
	Repo       *gitinterface.Repository
	Registry   *ruledata.Registry
	Cache      Cache
	LoadRules  CommitRulesLoader
	OnValid    OnValidHook
	Cancelled  func() bool
}

// ViolationError wraps a *ruledata.RuleViolation with the identity of the
// commit the walk ultimately rejected, per spec.md §4.E step 12.
type ViolationError struct {
	Commit    gitinterface.Hash
	Violation *ruledata.RuleViolation
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("commit %s rejected:\n%s", e.Commit, e.Violation.String())
}

// Run executes the commit-rule walk from bootstrap to head and reports
// whether head is valid.
func (w *Walk) Run(bootstrap, head gitinterface.Hash) error {
	isAncestor, err := w.Repo.IsAncestor(bootstrap, head)
	if err != nil {
		return fmt.Errorf("unable to check bootstrap ancestry: %w", err)
	}
	if !isAncestor {
		return fmt.Errorf("%w: %s is not an ancestor of %s", ErrBootstrapNotAncestor, bootstrap, head)
	}

	// Step 2: allow re-validation of head after rule updates.
	if err := w.Cache.Remove(head); err != nil {
		return fmt.Errorf("unable to clear cached decision for %s: %w", head, err)
	}

	var lastViolation *ruledata.RuleViolation
	var lastViolationCommit gitinterface.Hash

	stack := []gitinterface.Hash{head}

	for len(stack) > 0 {
		if w.Cancelled != nil && w.Cancelled() {
			return ErrCancelled
		}

		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if w.Cache.Has(c) {
			continue
		}

		if c.Equal(bootstrap) {
			if err := w.Cache.Set(c, true); err != nil {
				return fmt.Errorf("unable to record bootstrap as valid: %w", err)
			}
			if w.OnValid != nil {
				if err := w.OnValid(w.Repo, c); err != nil {
					return fmt.Errorf("on_valid hook failed for bootstrap %s: %w", c, err)
				}
			}
			continue
		}

		parents, err := w.Repo.GetCommitParentIDs(c)
		if err != nil {
			return fmt.Errorf("unable to read parents of %s: %w", c, err)
		}

		pending := make([]gitinterface.Hash, 0, len(parents))
		for _, p := range parents {
			if !w.Cache.Has(p) {
				pending = append(pending, p)
			}
		}

		if len(pending) > 0 {
			// c is requeued below its still-undecided parents; it will be
			// popped and this pending check redone once they're decided.
			// Duplicate stack entries for c are harmless since Cache.Has
			// makes reprocessing a no-op once c itself is decided.
			stack = append(stack, c)
			stack = append(stack, pending...)
			continue
		}

		validators, err := nearestValid(w.Cache, w.Repo, parents)
		if err != nil {
			return err
		}
		if len(validators) == 0 {
			violation := ruledata.NewViolation(fmt.Sprintf("%v: %s", ErrNoValidAncestors, c))
			if err := w.Cache.Set(c, false); err != nil {
				return fmt.Errorf("unable to record rejection of %s: %w", c, err)
			}
			lastViolation, lastViolationCommit = violation, c
			continue
		}

		rule, violation, err := w.buildValidatorRule(validators, c)
		if err != nil {
			return err
		}
		if violation != nil {
			if err := w.Cache.Set(c, false); err != nil {
				return fmt.Errorf("unable to record rejection of %s: %w", c, err)
			}
			lastViolation, lastViolationCommit = violation, c
			continue
		}

		if violation := rule.Validate(w.Repo, c); violation != nil {
			if err := w.Cache.Set(c, false); err != nil {
				return fmt.Errorf("unable to record rejection of %s: %w", c, err)
			}
			lastViolation, lastViolationCommit = violation, c
			continue
		}

		if err := w.Cache.Set(c, true); err != nil {
			return fmt.Errorf("unable to record validity of %s: %w", c, err)
		}
		if w.OnValid != nil {
			if err := w.OnValid(w.Repo, c); err != nil {
				return fmt.Errorf("on_valid hook failed for %s: %w", c, err)
			}
		}
	}

	valid, known := w.Cache.Get(head)
	if known && valid {
		return nil
	}

	if lastViolation == nil {
		lastViolation = ruledata.NewViolation(fmt.Sprintf("%s was rejected for reasons not captured by this walk", head))
		lastViolationCommit = head
	}

	return &ViolationError{Commit: lastViolationCommit, Violation: lastViolation}
}

// buildValidatorRule constructs the composed rule from a commit's
// validators (step 9) and parses the commit's own commit-rules file (step
// 10). A parse failure on the commit's own file is InvalidCommitRules.
func (w *Walk) buildValidatorRule(validators []gitinterface.Hash, c gitinterface.Hash) (ruledata.CommitRule, *ruledata.RuleViolation, error) {
	rules := make([]ruledata.CommitRule, 0, len(validators))
	for _, validator := range validators {
		data, err := w.LoadRules(w.Repo, validator)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load commit rules from validator %s: %w", validator, err)
		}

		rule, err := rulerun.LoadCommitRule(data, w.Registry, validator, w.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to construct rule tree for validator %s: %w", validator, err)
		}
		rules = append(rules, rule)
	}

	// Step 10: c's own commit-rules file must parse, even though it isn't
	// otherwise used to judge c; this exists purely to fail c if a future
	// validation would be silently disabled.
	if _, err := w.LoadRules(w.Repo, c); err != nil {
		return nil, ruledata.NewViolation(fmt.Sprintf("%v: %s: %v", ErrInvalidCommitRules, c, err)), nil
	}

	return rulerun.CombineCommitRules(rules), nil, nil
}

// nearestValid implements spec.md §4.E step 7 iteratively: for each parent,
// if it's cached true it's a validator; otherwise recurse (iteratively)
// through its own false-cached parents.
func nearestValid(c Cache, repo *gitinterface.Repository, parents []gitinterface.Hash) ([]gitinterface.Hash, error) {
	validators := []gitinterface.Hash{}
	seen := map[string]bool{}

	stack := append([]gitinterface.Hash{}, parents...)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := p.String()
		if seen[key] {
			continue
		}
		seen[key] = true

		valid, known := c.Get(p)
		if !known {
			// Shouldn't happen: the walk only calls nearestValid once all
			// of c's parents are decided. Treat as untrusted defensively.
			slog.Warn("nearestValid encountered an undecided commit", "commit", p)
			continue
		}

		if valid {
			validators = append(validators, p)
			continue
		}

		grandparents, err := repo.GetCommitParentIDs(p)
		if err != nil {
			return nil, fmt.Errorf("unable to read parents of %s while descending through invalid ancestors: %w", p, err)
		}
		stack = append(stack, grandparents...)
	}

	return validators, nil
}
