// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"fmt"
	"strings"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// InvalidParentsID and RequireNumberOfParentsID are the rule ids named in
// spec.md §4.I.
const (
	InvalidParentsID         = "invalid_parents"
	RequireNumberOfParentsID = "require_number_of_parents"
)

type invalidParentsArgs struct {
	Allow                    *bool `yaml:"allow"`
	RequireExplicitInclusion bool  `yaml:"require_explicit_inclusion"`
}

// invalidParents implements spec.md §4.I's invalid_parents: a merge commit's
// non-primary parents are checked against the validation cache. A
// cached-invalid non-primary parent is only tolerated when allow is true,
// and even then only if require_explicit_inclusion is false or the target's
// message names the parent hash verbatim.
type invalidParents struct {
	allow                    bool
	requireExplicitInclusion bool
	cache                    ruledata.CacheReader
}

func newInvalidParents(args any, _ gitinterface.Hash, cache ruledata.CacheReader) (ruledata.CommitRule, error) {
	parsed := invalidParentsArgs{}
	if args != nil {
		if err := decodeArgs(args, &parsed); err != nil {
			return nil, fmt.Errorf("%s: %w", InvalidParentsID, err)
		}
	}

	allow := true
	if parsed.Allow != nil {
		allow = *parsed.Allow
	}

	return &invalidParents{allow: allow, requireExplicitInclusion: parsed.RequireExplicitInclusion, cache: cache}, nil
}

func (r *invalidParents) Validate(repo *gitinterface.Repository, target gitinterface.Hash) *ruledata.RuleViolation {
	parents, err := repo.GetCommitParentIDs(target)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", InvalidParentsID, err))
	}
	if len(parents) <= 1 {
		return nil
	}

	message, err := repo.GetCommitMessage(target)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", InvalidParentsID, err))
	}

	for _, parent := range parents[1:] {
		valid, known := r.cache.Get(parent)
		if !known || valid {
			continue
		}

		if !r.allow {
			return ruledata.NewViolation(fmt.Sprintf("%s: non-primary parent %s is invalid", InvalidParentsID, parent))
		}
		if r.requireExplicitInclusion && !strings.Contains(message, parent.String()) {
			return ruledata.NewViolation(fmt.Sprintf("%s: invalid non-primary parent %s is not explicitly named in the commit message", InvalidParentsID, parent))
		}
	}

	return nil
}

// requireNumberOfParents implements spec.md §4.I's
// require_number_of_parents: the commit has at least threshold parents.
type requireNumberOfParents struct {
	threshold int
}

func newRequireNumberOfParents(args any, _ gitinterface.Hash, _ ruledata.CacheReader) (ruledata.CommitRule, error) {
	threshold, err := decodeIntArg(args, "threshold")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RequireNumberOfParentsID, err)
	}

	return &requireNumberOfParents{threshold: threshold}, nil
}

func (r *requireNumberOfParents) Validate(repo *gitinterface.Repository, target gitinterface.Hash) *ruledata.RuleViolation {
	parents, err := repo.GetCommitParentIDs(target)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", RequireNumberOfParentsID, err))
	}

	if len(parents) < r.threshold {
		return ruledata.NewViolation(fmt.Sprintf("%s: commit %s has %d parents, need at least %d", RequireNumberOfParentsID, target, len(parents), r.threshold))
	}
	return nil
}
