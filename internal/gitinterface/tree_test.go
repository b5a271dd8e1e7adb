// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTreeItemsAndAllFiles(t *testing.T) {
	dir := t.TempDir()
	repo := CreateTestRepository(t, dir)
	CommitTestFile(t, dir, "a.txt", "1", "first")
	commit := CommitTestFile(t, dir, "nested/b.txt", "2", "second")

	treeID, err := repo.GetCommitTreeID(commit)
	require.NoError(t, err)

	items, err := repo.GetTreeItems(treeID)
	require.NoError(t, err)
	assert.Contains(t, items, "a.txt")
	assert.Contains(t, items, "nested")
	assert.NotContains(t, items, "nested/b.txt")

	allFiles, err := repo.GetAllFilesInTree(treeID)
	require.NoError(t, err)
	assert.Contains(t, allFiles, "a.txt")
	assert.Contains(t, allFiles, "nested/b.txt")
}

func TestGetPathIDInTree(t *testing.T) {
	dir := t.TempDir()
	repo := CreateTestRepository(t, dir)
	commit := CommitTestFile(t, dir, "nested/b.txt", "2", "first")

	treeID, err := repo.GetCommitTreeID(commit)
	require.NoError(t, err)

	_, err = repo.GetPathIDInTree("nested/b.txt", treeID)
	require.NoError(t, err)

	_, err = repo.GetPathIDInTree("does/not/exist", treeID)
	require.ErrorIs(t, err, ErrTreeDoesNotHavePath)
}
