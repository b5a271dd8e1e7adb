// SPDX-License-Identifier: Apache-2.0

package ruledata

import (
	"strings"

	"github.com/barkvcs/bark/internal/gitinterface"
)

// RuleViolation is a tree of human-readable failure reasons. Composites
// aggregate their children's violations; a leaf violation has no children.
type RuleViolation struct {
	Message  string
	Children []RuleViolation
}

// NewViolation builds a leaf violation.
func NewViolation(message string) *RuleViolation {
	return &RuleViolation{Message: message}
}

// String renders the violation tree indented by depth, per spec.md §7's
// user-visible reporting requirement.
func (v *RuleViolation) String() string {
	return v.indented(0)
}

func (v *RuleViolation) indented(depth int) string {
	line := strings.Repeat("  ", depth) + "- " + v.Message
	for _, child := range v.Children {
		line += "\n" + child.indented(depth+1)
	}
	return line
}

// Aggregate wraps one or more child violations under message. If exactly one
// child is given, per spec.md §4.C's "if exactly one failed, re-raise it
// directly" rule, the child itself is returned unchanged instead of being
// wrapped.
func Aggregate(message string, children ...RuleViolation) *RuleViolation {
	if len(children) == 1 {
		return &children[0]
	}
	return &RuleViolation{Message: message, Children: children}
}

// CacheReader is the read-only slice of the validation cache that rule
// constructors may consult. Rule instances must never write to the cache.
type CacheReader interface {
	// Get returns the cached validity of commit under the cache's
	// bootstrap, and whether any decision has been cached at all.
	Get(commit gitinterface.Hash) (valid bool, known bool)
}

// CommitRule is a live rule instance bound to a validator commit, the cache,
// and parsed args. Validate must be pure with respect to the validator
// commit and must never write to the object database or the cache.
type CommitRule interface {
	Validate(repo *gitinterface.Repository, target gitinterface.Hash) *RuleViolation
}

// RefRule is the reference-scoped counterpart of CommitRule. head is the
// proposed tip of ref; a rule that cares about the ref's current tip (e.g.
// fast-forward-only) reads it itself via the façade, since the engine calls
// Validate before the update takes effect.
type RefRule interface {
	Validate(repo *gitinterface.Repository, head gitinterface.Hash, ref string) *RuleViolation
}

// CommitRuleConstructor builds a CommitRule instance from a leaf's args, the
// validator commit it's bound to, and a read-only cache handle.
type CommitRuleConstructor func(args any, validator gitinterface.Hash, cache CacheReader) (CommitRule, error)

// RefRuleConstructor is the RefRule counterpart of CommitRuleConstructor.
type RefRuleConstructor func(args any, validator gitinterface.Hash, cache CacheReader) (RefRule, error)
