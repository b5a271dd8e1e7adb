// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReferenceAndIsAncestor(t *testing.T) {
	dir := t.TempDir()
	repo := CreateTestRepository(t, dir)
	first := CommitTestFile(t, dir, "a.txt", "1", "first")
	second := CommitTestFile(t, dir, "b.txt", "2", "second")

	tip, err := repo.GetReference(BranchReferenceName("main"))
	require.NoError(t, err)
	assert.True(t, tip.Equal(second))

	isAncestor, err := repo.IsAncestor(first, second)
	require.NoError(t, err)
	assert.True(t, isAncestor)

	isAncestor, err = repo.IsAncestor(second, first)
	require.NoError(t, err)
	assert.False(t, isAncestor)

	_, err = repo.GetReference(BranchReferenceName("does-not-exist"))
	require.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestReferences(t *testing.T) {
	dir := t.TempDir()
	repo := CreateTestRepository(t, dir)
	CommitTestFile(t, dir, "a.txt", "1", "first")

	refs, err := repo.References()
	require.NoError(t, err)
	assert.Contains(t, refs, BranchReferenceName("main"))
}
