// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/barkvcs/bark/internal/builtin"
	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/project"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, path, contents string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
	gitinterface.RunGit(t, dir, "add", path)
}

func commit(t *testing.T, dir, message string) gitinterface.Hash {
	t.Helper()
	gitinterface.RunGit(t, dir, "commit", "-q", "-m", message)
	id := gitinterface.RunGit(t, dir, "rev-parse", "HEAD")
	hash, err := gitinterface.NewHash(id)
	require.NoError(t, err)
	return hash
}

// setupProject builds a repository with a bark_rules admin branch (its own
// bootstrap, itself carrying an empty commit_rules.yaml) and a "main"
// branch with its own bootstrap commit, governed by a project entry with no
// ref rules of its own (fast-forward-only still applies implicitly).
func setupProject(t *testing.T) (dir string, mainBootstrap, mainHead gitinterface.Hash) {
	t.Helper()
	dir = t.TempDir()
	gitinterface.CreateTestRepository(t, dir)

	// CreateTestRepository leaves HEAD on the unborn "main" branch.
	writeFile(t, dir, ".bark/commit_rules.yaml", "rules: []\n")
	mainBootstrap = commit(t, dir, "main bootstrap")

	writeFile(t, dir, "README.md", "hello\n")
	mainHead = commit(t, dir, "main head")

	gitinterface.RunGit(t, dir, "checkout", "-q", "--orphan", "bark_rules")
	gitinterface.RunGit(t, dir, "rm", "-rf", "--cached", ".")
	writeFile(t, dir, ".bark/commit_rules.yaml", "rules: []\n")
	writeFile(t, dir, ".bark/bark_rules.yaml", fmt.Sprintf(`
bark_rules: []
project:
  - bootstrap: %q
    refs:
      - pattern: "^refs/heads/main$"
        rules: []
`, mainBootstrap.String()))
	adminBootstrap := commit(t, dir, "admin bootstrap")

	gitinterface.RunGit(t, dir, "checkout", "-q", "main")

	proj, err := project.Open(dir)
	require.NoError(t, err)
	require.NoError(t, proj.SetBootstrap(adminBootstrap))

	return dir, mainBootstrap, mainHead
}

func newVerifier(t *testing.T, dir string) *Verifier {
	t.Helper()
	proj, err := project.Open(dir)
	require.NoError(t, err)

	registry := ruledata.NewRegistry()
	require.NoError(t, builtin.RegisterAll(registry))

	return New(proj, registry)
}

func TestVerifyRefMatchedEntryPasses(t *testing.T) {
	dir, _, mainHead := setupProject(t)
	v := newVerifier(t, dir)

	assert.NoError(t, v.VerifyRef("refs/heads/main", mainHead, false))
}

// setupProjectDeepChain is setupProject with a main branch three commits
// deep past its bootstrap, reproducing the requeue-then-revisit shape of
// the commit-rule walk (internal/engine/walk.go) that a one-hop chain never
// exercises.
func setupProjectDeepChain(t *testing.T) (dir string, mainBootstrap, mainHead gitinterface.Hash) {
	t.Helper()
	dir = t.TempDir()
	gitinterface.CreateTestRepository(t, dir)

	// CreateTestRepository leaves HEAD on the unborn "main" branch.
	writeFile(t, dir, ".bark/commit_rules.yaml", "rules: []\n")
	mainBootstrap = commit(t, dir, "main bootstrap")

	writeFile(t, dir, "second.md", "two\n")
	commit(t, dir, "second")

	writeFile(t, dir, "third.md", "three\n")
	commit(t, dir, "third")

	writeFile(t, dir, "README.md", "hello\n")
	mainHead = commit(t, dir, "main head")

	gitinterface.RunGit(t, dir, "checkout", "-q", "--orphan", "bark_rules")
	gitinterface.RunGit(t, dir, "rm", "-rf", "--cached", ".")
	writeFile(t, dir, ".bark/commit_rules.yaml", "rules: []\n")
	writeFile(t, dir, ".bark/bark_rules.yaml", fmt.Sprintf(`
bark_rules: []
project:
  - bootstrap: %q
    refs:
      - pattern: "^refs/heads/main$"
        rules: []
`, mainBootstrap.String()))
	adminBootstrap := commit(t, dir, "admin bootstrap")

	gitinterface.RunGit(t, dir, "checkout", "-q", "main")

	proj, err := project.Open(dir)
	require.NoError(t, err)
	require.NoError(t, proj.SetBootstrap(adminBootstrap))

	return dir, mainBootstrap, mainHead
}

func TestVerifyRefAcceptsChainThreeCommitsDeep(t *testing.T) {
	dir, _, mainHead := setupProjectDeepChain(t)
	v := newVerifier(t, dir)

	assert.NoError(t, v.VerifyRef("refs/heads/main", mainHead, false))
}

func TestVerifyRefUnprotectedRefAllowed(t *testing.T) {
	dir, _, _ := setupProject(t)
	v := newVerifier(t, dir)

	gitinterface.RunGit(t, dir, "checkout", "-q", "-b", "scratch")
	writeFile(t, dir, "scratch.txt", "x\n")
	scratchHead := commit(t, dir, "scratch commit")

	assert.NoError(t, v.VerifyRef("refs/heads/scratch", scratchHead, true))
}

func TestVerifyRefUnprotectedRefRejectedWhenNotAllowed(t *testing.T) {
	dir, _, _ := setupProject(t)
	v := newVerifier(t, dir)

	gitinterface.RunGit(t, dir, "checkout", "-q", "-b", "scratch")
	writeFile(t, dir, "scratch.txt", "x\n")
	scratchHead := commit(t, dir, "scratch commit")

	err := v.VerifyRef("refs/heads/scratch", scratchHead, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRulesDefined)
}

func TestVerifyCommitBypassesPolicy(t *testing.T) {
	dir, mainBootstrap, mainHead := setupProject(t)
	v := newVerifier(t, dir)

	assert.NoError(t, v.VerifyCommit(mainHead, mainBootstrap))
}

func TestVerifyRefUpdateIsSameAsVerifyRef(t *testing.T) {
	dir, _, mainHead := setupProject(t)
	v := newVerifier(t, dir)

	assert.NoError(t, v.VerifyRefUpdate("refs/heads/main", mainHead, false))
}

func TestVerifyAllSkipsAdminRefAndPassesMatchedRefs(t *testing.T) {
	dir, _, _ := setupProject(t)
	v := newVerifier(t, dir)

	assert.NoError(t, v.VerifyAll())
}
