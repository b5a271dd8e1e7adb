// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/stretchr/testify/require"
)

func testHash(t *testing.T, s string) gitinterface.Hash {
	t.Helper()
	h, err := gitinterface.NewHash(s)
	require.NoError(t, err)
	return h
}

func TestCacheGetSetRemove(t *testing.T) {
	dir := t.TempDir()
	bootstrap := testHash(t, "1111111111111111111111111111111111111111")
	commit := testHash(t, "2222222222222222222222222222222222222222")

	c, err := Open(dir, bootstrap)
	require.NoError(t, err)
	defer c.Close()

	_, known := c.Get(commit)
	require.False(t, known)
	require.False(t, c.Has(commit))

	require.NoError(t, c.Set(commit, true))
	valid, known := c.Get(commit)
	require.True(t, known)
	require.True(t, valid)

	require.NoError(t, c.Set(commit, false))
	valid, known = c.Get(commit)
	require.True(t, known)
	require.False(t, valid)

	require.NoError(t, c.Remove(commit))
	_, known = c.Get(commit)
	require.False(t, known)
}

func TestCachePerBootstrapSeparation(t *testing.T) {
	dir := t.TempDir()
	bootstrapA := testHash(t, "1111111111111111111111111111111111111111")
	bootstrapB := testHash(t, "3333333333333333333333333333333333333333")
	commit := testHash(t, "2222222222222222222222222222222222222222")

	cacheA, err := Open(dir, bootstrapA)
	require.NoError(t, err)
	require.NoError(t, cacheA.Set(commit, true))
	require.NoError(t, cacheA.Close())

	cacheB, err := Open(dir, bootstrapB)
	require.NoError(t, err)
	defer cacheB.Close()

	_, known := cacheB.Get(commit)
	require.False(t, known, "decisions under one bootstrap must not leak into another")
}

func TestOpenRebuildsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	bootstrap := testHash(t, "1111111111111111111111111111111111111111")

	path := filepath.Join(dir, bootstrap.String()+".db")
	require.NoError(t, os.WriteFile(path, []byte("not a bbolt file"), 0o600))

	c, err := Open(dir, bootstrap)
	require.NoError(t, err)
	defer c.Close()

	_, err = os.Stat(path + ".corrupt")
	require.NoError(t, err, "corrupt file should have been quarantined")
}

func TestFileNamePattern(t *testing.T) {
	require.True(t, FileNamePattern.MatchString("1111111111111111111111111111111111111111.db"))
	require.False(t, FileNamePattern.MatchString("not-a-hash.db"))
}
