// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"fmt"

	"github.com/barkvcs/bark/internal/gitinterface"
)

// KeyDirectory is the tree path under which a validator commit's authorized
// signing keys are expected to live. require_signature and require_approval
// both glob-match their `authorized_keys` argument against file names in
// this directory.
const KeyDirectory = ".bark/.pubkeys/"

// loadAuthorizedKeys resolves glob against validator's key directory and
// parses every matching file as a key. A glob matching nothing is not an
// error here: require_signature reports it as a rule violation naming the
// glob and the key directory, and require_approval counts zero approvals.
func loadAuthorizedKeys(repo *gitinterface.Repository, validator gitinterface.Hash, glob string) ([]*gitinterface.Key, error) {
	treeID, err := repo.GetCommitTreeID(validator)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve tree of validator %s: %w", validator, err)
	}

	paths, err := repo.ListFiles(treeID, KeyDirectory+glob)
	if err != nil {
		return nil, fmt.Errorf("unable to list authorized keys under %s: %w", KeyDirectory, err)
	}

	keys := make([]*gitinterface.Key, 0, paths.Len())
	for _, path := range paths.Contents() {
		blob, err := repo.ReadFile(treeID, path)
		if err != nil {
			return nil, fmt.Errorf("unable to read key file %s: %w", path, err)
		}

		key, err := gitinterface.ParseKey(blob)
		if err != nil {
			return nil, fmt.Errorf("unable to parse key file %s: %w", path, err)
		}
		keys = append(keys, key)
	}

	return keys, nil
}
