// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"github.com/barkvcs/bark/internal/engine"
	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitRulesLoaderLenientOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	gitinterface.CreateTestRepository(t, dir)
	commit := gitinterface.CommitTestFile(t, dir, "README.md", "hello", "init")

	repo, err := gitinterface.LoadRepository(dir)
	require.NoError(t, err)

	loader := NewCommitRulesLoader(false)
	data, err := loader(repo, commit)
	require.NoError(t, err)
	assert.Equal(t, ruledata.KindNone, data.ID)
}

func TestCommitRulesLoaderStrictOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	gitinterface.CreateTestRepository(t, dir)
	commit := gitinterface.CommitTestFile(t, dir, "README.md", "hello", "init")

	repo, err := gitinterface.LoadRepository(dir)
	require.NoError(t, err)

	loader := NewCommitRulesLoader(true)
	_, err = loader(repo, commit)
	assert.Error(t, err)
}

func TestCommitRulesLoaderParsesRules(t *testing.T) {
	dir := t.TempDir()
	gitinterface.CreateTestRepository(t, dir)
	commit := commitMultipleFiles(t, dir, map[string]string{
		engine.CommitRulesPath: "rules:\n  - always_pass\n  - always_fail\n",
	}, "add commit rules")

	repo, err := gitinterface.LoadRepository(dir)
	require.NoError(t, err)

	for _, strict := range []bool{true, false} {
		loader := NewCommitRulesLoader(strict)
		data, err := loader(repo, commit)
		require.NoError(t, err)
		assert.Equal(t, ruledata.KindAll, data.ID)
		require.Len(t, data.Children, 2)
	}
}

func TestCommitRulesLoaderPropagatesParseError(t *testing.T) {
	dir := t.TempDir()
	gitinterface.CreateTestRepository(t, dir)
	commit := commitMultipleFiles(t, dir, map[string]string{
		engine.CommitRulesPath: "rules: [\n",
	}, "broken commit rules")

	repo, err := gitinterface.LoadRepository(dir)
	require.NoError(t, err)

	for _, strict := range []bool{true, false} {
		loader := NewCommitRulesLoader(strict)
		_, err := loader(repo, commit)
		assert.Error(t, err)
	}
}
