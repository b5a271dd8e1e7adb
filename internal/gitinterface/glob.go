// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"github.com/barkvcs/bark/internal/common/set"
	"github.com/danwakefield/fnmatch"
)

// ListFiles returns every path under treeID that matches any of the given
// glob patterns. Patterns are matched with flags off, so `*` matches `/` as
// well as any other character. For this reason `*.pub` matches a .pub file
// at any depth, including the tree root, while `**/*.pub` needs at least one
// `/` in the path and so misses a .pub file at the root.
func (r *Repository) ListFiles(treeID Hash, globs ...string) (*set.Set[string], error) {
	allFiles, err := r.GetAllFilesInTree(treeID)
	if err != nil {
		return nil, err
	}

	matches := set.NewSet[string]()
	for path := range allFiles {
		for _, pattern := range globs {
			if fnmatch.Match(pattern, path, 0) {
				matches.Add(path)
				break
			}
		}
	}

	return matches, nil
}
