// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
)

const (
	RefPrefix       = "refs/"
	BranchRefPrefix = "refs/heads/"
	TagRefPrefix    = "refs/tags/"
	RemoteRefPrefix = "refs/remotes/"
)

var ErrReferenceNotFound = errors.New("requested Git reference not found")

// GetReference returns the tip of the specified Git reference.
func (r *Repository) GetReference(refName string) (Hash, error) {
	refTipID, err := r.executor("rev-parse", refName).executeString()
	if err != nil {
		if strings.Contains(err.Error(), "unknown revision or path not in the working tree") {
			return ZeroHash, ErrReferenceNotFound
		}
		return ZeroHash, fmt.Errorf("unable to read reference '%s': %w", refName, err)
	}

	hash, err := NewHash(refTipID)
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid Git ID for reference '%s': %w", refName, err)
	}

	return hash, nil
}

// GetSymbolicReferenceTarget returns the name of the Git reference the
// provided symbolic Git reference is pointing to.
func (r *Repository) GetSymbolicReferenceTarget(refName string) (string, error) {
	symTarget, err := r.executor("symbolic-ref", refName).executeString()
	if err != nil {
		return "", fmt.Errorf("unable to resolve %s: %w", refName, err)
	}

	return symTarget, nil
}

// References returns every local reference in the repository, mapped to
// its tip commit.
func (r *Repository) References() (map[string]Hash, error) {
	stdOut, err := r.executor("for-each-ref", "--format=%(objectname) %(refname)").executeString()
	if err != nil {
		return nil, fmt.Errorf("unable to enumerate references: %w", err)
	}

	refs := map[string]Hash{}
	if stdOut == "" {
		return refs, nil
	}

	for _, line := range strings.Split(stdOut, "\n") {
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}

		hash, err := NewHash(fields[0])
		if err != nil {
			return nil, fmt.Errorf("invalid Git ID for reference '%s': %w", fields[1], err)
		}

		refs[fields[1]] = hash
	}

	return refs, nil
}

// IsAncestor returns true if ancestorID is an ancestor of (or equal to)
// descendantID.
func (r *Repository) IsAncestor(ancestorID, descendantID Hash) (bool, error) {
	if ancestorID.Equal(descendantID) {
		return true, nil
	}

	_, err := r.executor("merge-base", "--is-ancestor", ancestorID.String(), descendantID.String()).executeString()
	if err == nil {
		return true, nil
	}

	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}

	return false, fmt.Errorf("unable to determine ancestry of '%s' and '%s': %w", ancestorID, descendantID, err)
}

// Resolve accepts a ref name, a short branch/tag name, a (possibly
// abbreviated) commit hash, or "HEAD" and returns the commit it points to,
// along with the fully-qualified reference name if the input resolved
// through a reference (empty if it resolved directly to an object ID).
func (r *Repository) Resolve(name string) (Hash, string, error) {
	refName, err := r.absoluteReference(name)
	if err == nil {
		commitID, err := r.GetReference(refName)
		if err != nil {
			return ZeroHash, "", err
		}
		return commitID, refName, nil
	}
	if !errors.Is(err, ErrReferenceNotFound) {
		return ZeroHash, "", err
	}

	commitID, err := r.GetReference(name)
	if err != nil {
		return ZeroHash, "", err
	}
	return commitID, "", nil
}

// absoluteReference resolves short ref forms (branch name, tag name, HEAD)
// into their fully qualified `refs/...` form.
func (r *Repository) absoluteReference(target string) (string, error) {
	if strings.HasPrefix(target, RefPrefix) {
		return target, nil
	}

	if target == "HEAD" {
		if _, err := os.Stat(path.Join(r.gitDirPath, "HEAD")); err == nil {
			return r.GetSymbolicReferenceTarget("HEAD")
		}
	}

	branchName := BranchReferenceName(target)
	if _, err := r.GetReference(branchName); err == nil {
		return branchName, nil
	} else if !errors.Is(err, ErrReferenceNotFound) {
		return "", err
	}

	tagName := TagReferenceName(target)
	if _, err := r.GetReference(tagName); err == nil {
		return tagName, nil
	} else if !errors.Is(err, ErrReferenceNotFound) {
		return "", err
	}

	return "", ErrReferenceNotFound
}

// TagReferenceName returns the full reference name for the specified tag in
// the form `refs/tags/<tagName>`.
func TagReferenceName(tagName string) string {
	if strings.HasPrefix(tagName, TagRefPrefix) {
		return tagName
	}

	return fmt.Sprintf("%s%s", TagRefPrefix, tagName)
}

// BranchReferenceName returns the full reference name for the specified
// branch in the form `refs/heads/<branchName>`.
func BranchReferenceName(branchName string) string {
	if strings.HasPrefix(branchName, BranchRefPrefix) {
		return branchName
	}

	return fmt.Sprintf("%s%s", BranchRefPrefix, branchName)
}
