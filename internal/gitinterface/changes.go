// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"fmt"
	"strings"

	"github.com/barkvcs/bark/internal/common/set"
)

// FilesModified returns the set of file paths whose blob differs between
// the trees of a and b. The result does not depend on argument order: it is
// the set of paths touched by going from a to b in either direction.
func (r *Repository) FilesModified(a, b Hash) (*set.Set[string], error) {
	if err := r.ensureIsCommit(a); err != nil {
		return nil, err
	}
	if err := r.ensureIsCommit(b); err != nil {
		return nil, err
	}

	stdOut, err := r.executor("diff-tree", "--no-commit-id", "--name-only", "-r", a.String(), b.String()).executeString()
	if err != nil {
		return nil, fmt.Errorf("unable to diff '%s' against '%s': %w", a, b, err)
	}

	paths := set.NewSet[string]()
	if stdOut == "" {
		return paths, nil
	}

	for _, path := range strings.Split(stdOut, "\n") {
		if path == "" {
			continue
		}
		paths.Add(path)
	}

	return paths, nil
}
