// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"errors"
	"fmt"
	"strings"
)

var ErrTreeDoesNotHavePath = errors.New("tree does not have requested path")

// GetPathIDInTree returns the Git ID pointed to by the path in the specified
// tree if the path exists. If not, a corresponding error is returned. For
// example, if the tree contains a single blob `foo/bar/baz`, querying the ID
// for `foo/bar/baz` will return the blob ID for baz. Querying the ID for
// `foo/bar` will return the intermediate tree ID for bar, while querying for
// `foo/baz` will return an error.
func (r *Repository) GetPathIDInTree(treePath string, treeID Hash) (Hash, error) {
	treePath = strings.TrimSuffix(treePath, "/")
	components := strings.Split(treePath, "/")

	currentTreeID := treeID
	for len(components) != 0 {
		items, err := r.GetTreeItems(currentTreeID)
		if err != nil {
			return ZeroHash, err
		}

		entryID, has := items[components[0]]
		if !has {
			return ZeroHash, fmt.Errorf("%w: %s", ErrTreeDoesNotHavePath, treePath)
		}

		currentTreeID = entryID
		components = components[1:]
	}

	return currentTreeID, nil
}

// GetTreeItems returns the items in a specified Git tree without recursively
// expanding subtrees.
func (r *Repository) GetTreeItems(treeID Hash) (map[string]Hash, error) {
	// Without --format (not available before Git 2.36), the output is:
	// <mode> SP <type> SP <object> TAB <file>
	// https://git-scm.com/docs/git-ls-tree/2.34.1#_output_format
	stdOut, err := r.executor("ls-tree", treeID.String()).executeString()
	if err != nil {
		return nil, fmt.Errorf("unable to enumerate items in tree '%s': %w", treeID.String(), err)
	}

	return parseLsTreeOutput(stdOut)
}

// GetAllFilesInTree returns every filepath in the specified tree, recursing
// into subtrees, mapped to its blob hash.
func (r *Repository) GetAllFilesInTree(treeID Hash) (map[string]Hash, error) {
	stdOut, err := r.executor("ls-tree", "-r", treeID.String()).executeString()
	if err != nil {
		return nil, fmt.Errorf("unable to enumerate all files in tree '%s': %w", treeID.String(), err)
	}

	return parseLsTreeOutput(stdOut)
}

func parseLsTreeOutput(stdOut string) (map[string]Hash, error) {
	if stdOut == "" {
		return map[string]Hash{}, nil
	}

	items := map[string]Hash{}
	for _, entry := range strings.Split(stdOut, "\n") {
		if entry == "" {
			continue
		}

		// <mode> SP <type> SP <object> TAB <file>
		entrySplit := strings.SplitN(entry, " ", 3)
		if len(entrySplit) != 3 {
			return nil, fmt.Errorf("malformed ls-tree entry: %s", entry)
		}

		objectAndPath := strings.SplitN(entrySplit[2], "\t", 2)
		if len(objectAndPath) != 2 {
			return nil, fmt.Errorf("malformed ls-tree entry: %s", entry)
		}

		hash, err := NewHash(objectAndPath[0])
		if err != nil {
			return nil, fmt.Errorf("invalid Git ID '%s' for path '%s': %w", objectAndPath[0], objectAndPath[1], err)
		}

		items[objectAndPath[1]] = hash
	}

	return items, nil
}

// ensureIsTree is a helper to check that the ID represents a Git tree
// object.
func (r *Repository) ensureIsTree(treeID Hash) error {
	objType, err := r.executor("cat-file", "-t", treeID.String()).executeString()
	if err != nil {
		return fmt.Errorf("unable to inspect if object is tree: %w", err)
	} else if objType != "tree" {
		return fmt.Errorf("requested Git ID '%s' is not a tree object", treeID.String())
	}

	return nil
}
