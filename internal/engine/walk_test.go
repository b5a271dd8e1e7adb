// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is a trivial in-memory stand-in for *cache.Cache, so the engine
// package's tests don't need to depend on bbolt files on disk.
type memCache struct {
	decisions map[string]bool
}

func newMemCache() *memCache {
	return &memCache{decisions: map[string]bool{}}
}

func (c *memCache) Has(commit gitinterface.Hash) bool {
	_, known := c.decisions[commit.String()]
	return known
}

func (c *memCache) Get(commit gitinterface.Hash) (bool, bool) {
	valid, known := c.decisions[commit.String()]
	return valid, known
}

func (c *memCache) Set(commit gitinterface.Hash, valid bool) error {
	c.decisions[commit.String()] = valid
	return nil
}

func (c *memCache) Remove(commit gitinterface.Hash) error {
	delete(c.decisions, commit.String())
	return nil
}

func noRules(*gitinterface.Repository, gitinterface.Hash) (ruledata.RuleData, error) {
	return ruledata.RuleData{ID: ruledata.KindNone}, nil
}

func TestWalkAcceptsChainWithNoRules(t *testing.T) {
	dir := t.TempDir()
	repo := gitinterface.CreateTestRepository(t, dir)
	bootstrap := gitinterface.CommitTestFile(t, dir, "a.txt", "1", "bootstrap")
	head := gitinterface.CommitTestFile(t, dir, "b.txt", "2", "second")

	w := &Walk{
		Repo:      repo,
		Registry:  ruledata.NewRegistry(),
		Cache:     newMemCache(),
		LoadRules: noRules,
	}

	require.NoError(t, w.Run(bootstrap, head))
}

func TestWalkAcceptsChainThreeCommitsDeep(t *testing.T) {
	dir := t.TempDir()
	repo := gitinterface.CreateTestRepository(t, dir)
	bootstrap := gitinterface.CommitTestFile(t, dir, "a.txt", "1", "bootstrap")
	gitinterface.CommitTestFile(t, dir, "b.txt", "2", "second")
	gitinterface.CommitTestFile(t, dir, "c.txt", "3", "third")
	head := gitinterface.CommitTestFile(t, dir, "d.txt", "4", "fourth")

	w := &Walk{
		Repo:      repo,
		Registry:  ruledata.NewRegistry(),
		Cache:     newMemCache(),
		LoadRules: noRules,
	}

	require.NoError(t, w.Run(bootstrap, head))

	valid, known := w.Cache.Get(head)
	require.True(t, known)
	assert.True(t, valid)
}

func TestWalkRejectsWhenBootstrapNotAncestor(t *testing.T) {
	dir := t.TempDir()
	repo := gitinterface.CreateTestRepository(t, dir)
	gitinterface.CommitTestFile(t, dir, "a.txt", "1", "first")
	head := gitinterface.CommitTestFile(t, dir, "b.txt", "2", "second")

	// branchOff is a sibling commit on its own root, sharing no history
	// with head, so it can never be head's ancestor.
	gitinterface.RunGit(t, dir, "checkout", "--orphan", "sibling")
	branchOff := gitinterface.CommitTestFile(t, dir, "c.txt", "3", "sibling root")

	w := &Walk{
		Repo:      repo,
		Registry:  ruledata.NewRegistry(),
		Cache:     newMemCache(),
		LoadRules: noRules,
	}

	err := w.Run(branchOff, head)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBootstrapNotAncestor)
}

func TestWalkRejectsCommitFailingItsValidatorsRule(t *testing.T) {
	dir := t.TempDir()
	repo := gitinterface.CreateTestRepository(t, dir)
	bootstrap := gitinterface.CommitTestFile(t, dir, "a.txt", "1", "bootstrap")
	head := gitinterface.CommitTestFile(t, dir, "b.txt", "2", "second")

	registry := ruledata.NewRegistry()
	require.NoError(t, registry.RegisterCommitRule("always_fail", func(any, gitinterface.Hash, ruledata.CacheReader) (ruledata.CommitRule, error) {
		return rejectAlways{}, nil
	}))

	loadRules := func(repo *gitinterface.Repository, commit gitinterface.Hash) (ruledata.RuleData, error) {
		if commit.Equal(bootstrap) {
			return ruledata.RuleData{ID: "always_fail"}, nil
		}
		return ruledata.RuleData{ID: ruledata.KindNone}, nil
	}

	w := &Walk{
		Repo:      repo,
		Registry:  registry,
		Cache:     newMemCache(),
		LoadRules: loadRules,
	}

	err := w.Run(bootstrap, head)
	require.Error(t, err)

	var violationErr *ViolationError
	require.ErrorAs(t, err, &violationErr)
	assert.True(t, violationErr.Commit.Equal(head))
}

func TestWalkRunsOnValidHookForEachAcceptedCommit(t *testing.T) {
	dir := t.TempDir()
	repo := gitinterface.CreateTestRepository(t, dir)
	bootstrap := gitinterface.CommitTestFile(t, dir, "a.txt", "1", "bootstrap")
	head := gitinterface.CommitTestFile(t, dir, "b.txt", "2", "second")

	seen := []string{}
	w := &Walk{
		Repo:      repo,
		Registry:  ruledata.NewRegistry(),
		Cache:     newMemCache(),
		LoadRules: noRules,
		OnValid: func(_ *gitinterface.Repository, commit gitinterface.Hash) error {
			seen = append(seen, commit.String())
			return nil
		},
	}

	require.NoError(t, w.Run(bootstrap, head))
	assert.ElementsMatch(t, []string{bootstrap.String(), head.String()}, seen)
}

type rejectAlways struct{}

func (rejectAlways) Validate(*gitinterface.Repository, gitinterface.Hash) *ruledata.RuleViolation {
	return ruledata.NewViolation("always_fail")
}
