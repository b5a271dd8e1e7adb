// SPDX-License-Identifier: Apache-2.0

package rulerun

import (
	"fmt"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// noneCommitRule always succeeds and carries no children.
type noneCommitRule struct{}

func (noneCommitRule) Validate(*gitinterface.Repository, gitinterface.Hash) *ruledata.RuleViolation {
	return nil
}

// noneRefRule is the RefRule counterpart of noneCommitRule.
type noneRefRule struct{}

func (noneRefRule) Validate(*gitinterface.Repository, gitinterface.Hash, string) *ruledata.RuleViolation {
	return nil
}

// compositeCommitRule evaluates every child once, with no short-circuit,
// per spec.md §4.C.
type compositeCommitRule struct {
	kind     string
	children []ruledata.CommitRule
}

func (c compositeCommitRule) Validate(repo *gitinterface.Repository, target gitinterface.Hash) *ruledata.RuleViolation {
	failures := make([]ruledata.RuleViolation, 0, len(c.children))
	for _, child := range c.children {
		if violation := child.Validate(repo, target); violation != nil {
			failures = append(failures, *violation)
		}
	}

	switch c.kind {
	case ruledata.KindAll:
		if len(failures) == 0 {
			return nil
		}
		return ruledata.Aggregate(fmt.Sprintf("%d of %d rules rejected %s", len(failures), len(c.children), target), failures...)

	case ruledata.KindAny:
		if len(failures) < len(c.children) {
			return nil
		}
		return ruledata.Aggregate(fmt.Sprintf("all %d alternatives rejected %s", len(c.children), target), failures...)

	default:
		return ruledata.NewViolation(fmt.Sprintf("unknown composite kind %q", c.kind))
	}
}

// compositeRefRule is the RefRule counterpart of compositeCommitRule.
type compositeRefRule struct {
	kind     string
	children []ruledata.RefRule
}

func (c compositeRefRule) Validate(repo *gitinterface.Repository, head gitinterface.Hash, ref string) *ruledata.RuleViolation {
	failures := make([]ruledata.RuleViolation, 0, len(c.children))
	for _, child := range c.children {
		if violation := child.Validate(repo, head, ref); violation != nil {
			failures = append(failures, *violation)
		}
	}

	switch c.kind {
	case ruledata.KindAll:
		if len(failures) == 0 {
			return nil
		}
		return ruledata.Aggregate(fmt.Sprintf("%d of %d ref rules rejected %s", len(failures), len(c.children), ref), failures...)

	case ruledata.KindAny:
		if len(failures) < len(c.children) {
			return nil
		}
		return ruledata.Aggregate(fmt.Sprintf("all %d ref rule alternatives rejected %s", len(c.children), ref), failures...)

	default:
		return ruledata.NewViolation(fmt.Sprintf("unknown composite kind %q", c.kind))
	}
}
