// SPDX-License-Identifier: Apache-2.0

// Package verifier implements spec.md §4.H's four entry points, wiring the
// policy layer (internal/policy) to the commit-rule and ref-rule engines
// (internal/engine) in the order §4.F mandates: commit rules before ref
// rules, because ref rules reason about a head that should already be
// trusted.
package verifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/policy"
	"github.com/barkvcs/bark/internal/project"
	"github.com/barkvcs/bark/internal/ruledata"
)

// ErrNoRulesDefined is raised by VerifyRef/VerifyRefUpdate when ref matches
// no project entry and the caller did not set AllowUnprotected, per
// spec.md §4.G/§7.
var ErrNoRulesDefined = errors.New("protected ref has no matching bootstrap entry")

// Verifier ties a project's persisted state to a rule registry. One
// Verifier is typically built per CLI invocation.
type Verifier struct {
	Project  *project.Project
	Registry *ruledata.Registry
	// Cancelled, if set, is threaded into every commit-rule walk.
	Cancelled func() bool
}

// New builds a Verifier over proj using registry for rule construction.
func New(proj *project.Project, registry *ruledata.Registry) *Verifier {
	return &Verifier{Project: proj, Registry: registry}
}

// VerifyCommit implements spec.md §4.H's verify_commit: it bypasses the
// policy layer entirely, walking head under the caller-supplied bootstrap
// directly. Useful for a developer sanity-checking a commit before it's
// anywhere near a protected ref.
func (v *Verifier) VerifyCommit(head, bootstrap gitinterface.Hash) error {
	c, err := v.Project.OpenCache(bootstrap)
	if err != nil {
		return fmt.Errorf("unable to open cache for bootstrap %s: %w", bootstrap, err)
	}
	defer c.Close()

	return v.runWalk(c, bootstrap, head, false, nil)
}

// VerifyRef implements spec.md §4.H's verify_ref: resolve governing
// bootstrap(s) and ref rule(s) via the policy layer, then for each matched
// entry run commit rules followed by ref rules, requiring every entry to
// pass. If ref matches no entry, the result depends on allowUnprotected:
// true treats it as success (spec.md §4.G's "unprotected" case), false
// raises ErrNoRulesDefined.
func (v *Verifier) VerifyRef(ref string, head gitinterface.Hash, allowUnprotected bool) error {
	matches, err := v.resolve(ref)
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		if allowUnprotected {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrNoRulesDefined, ref)
	}

	var violations []ruledata.RuleViolation
	for _, match := range matches {
		if err := v.verifyMatch(match, ref, head); err != nil {
			var ve *ViolatedRefError
			if errors.As(err, &ve) {
				violations = append(violations, *ve.Violation)
				continue
			}
			return err
		}
	}

	if len(violations) > 0 {
		return &ViolatedRefError{Ref: ref, Head: head, Violation: ruledata.Aggregate(fmt.Sprintf("%s failed against %d governing entr(y/ies)", ref, len(violations)), violations...)}
	}
	return nil
}

// VerifyRefUpdate implements spec.md §4.H's verify_ref_update: identical to
// VerifyRef. The fast-forward precondition already inspects ref's existing
// tip (via engine.FastForwardOnly reading the façade directly), not
// newHead, satisfying §4.H's requirement without any special-casing here.
func (v *Verifier) VerifyRefUpdate(ref string, newHead gitinterface.Hash, allowUnprotected bool) error {
	return v.VerifyRef(ref, newHead, allowUnprotected)
}

// VerifyAll implements spec.md §4.H's verify_all: every ref currently known
// to the repository is checked, unprotected refs are silently skipped, and
// every violation is unioned under a single root error.
func (v *Verifier) VerifyAll() error {
	refs, err := v.Project.Repo.References()
	if err != nil {
		return fmt.Errorf("unable to enumerate references: %w", err)
	}

	var failures []string
	for ref, head := range refs {
		if ref == policy.AdminRef {
			continue
		}
		if err := v.VerifyRef(ref, head, true); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", ref, err))
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("not all refs valid:\n%s", strings.Join(failures, "\n"))
}

// ViolatedRefError reports a ref's rejection with the ref name, the commit
// that was ultimately rejected, and the violation tree indented by depth,
// per spec.md §7's user-visible reporting requirement.
type ViolatedRefError struct {
	Ref       string
	Head      gitinterface.Hash
	Violation *ruledata.RuleViolation
}

func (e *ViolatedRefError) Error() string {
	return fmt.Sprintf("ref %s (head %s) rejected:\n%s", e.Ref, e.Head, e.Violation.String())
}
