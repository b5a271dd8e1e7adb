// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"fmt"
	"io"
	"strings"
)

// ReadBlob returns the contents of the blob referenced by blobID.
func (r *Repository) ReadBlob(blobID Hash) ([]byte, error) {
	objType, err := r.executor("cat-file", "-t", blobID.String()).executeString()
	if err != nil {
		return nil, fmt.Errorf("unable to inspect if object is blob: %w", err)
	} else if objType != "blob" {
		return nil, fmt.Errorf("requested Git ID '%s' is not a blob object", blobID.String())
	}

	stdOut, stdErr, err := r.executor("cat-file", "-p", blobID.String()).execute()
	if err != nil {
		return nil, fmt.Errorf("unable to read blob: %s", stdErr)
	}

	return io.ReadAll(stdOut)
}

// GetBlobID returns the ID of the blob at the specified path in the given
// tree-ish. If ref is ":", the path is resolved against the index.
func (r *Repository) GetBlobID(ref, path string) (Hash, error) {
	var fullRef string
	if ref == ":" {
		fullRef = ":" + path
	} else {
		fullRef = ref + ":" + path
	}

	stdout, err := r.executor("rev-parse", fullRef).executeString()
	if err != nil {
		return ZeroHash, fmt.Errorf("unable to resolve blob ID for %s in %s: %w", path, ref, err)
	}
	blobID, err := NewHash(strings.TrimSpace(stdout))
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid blob id: %w", err)
	}
	return blobID, nil
}

// ReadFile resolves path against treeID and returns the blob's contents.
func (r *Repository) ReadFile(treeID Hash, path string) ([]byte, error) {
	blobID, err := r.GetPathIDInTree(path, treeID)
	if err != nil {
		return nil, err
	}

	return r.ReadBlob(blobID)
}
