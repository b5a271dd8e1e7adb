// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"testing"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirements(t *testing.T) {
	blob := []byte("\ncheck_changelog\n# a comment\n\nrequire_ticket_reference\n")
	names := ParseRequirements(blob)
	assert.Equal(t, []string{"check_changelog", "require_ticket_reference"}, names)
}

const sampleLuaModule = `
function validate(args, target)
  if args.expect and args.expect ~= target then
    return false, "target did not match expect"
  end
  return true, ""
end
`

func TestInstallModulesRegistersAndRuns(t *testing.T) {
	dir := t.TempDir()
	gitinterface.CreateTestRepository(t, dir)
	commit := commitMultipleFiles(t, dir, map[string]string{
		RequirementsPath:                "check_changelog\n",
		ModulePathPrefix + "check_changelog.lua": sampleLuaModule,
	}, "install module")

	repo, err := gitinterface.LoadRepository(dir)
	require.NoError(t, err)

	registry := ruledata.NewRegistry()
	require.NoError(t, InstallModules(repo, commit, registry))

	constructor, err := registry.CommitRuleConstructorFor("check_changelog")
	require.NoError(t, err)

	rule, err := constructor(nil, gitinterface.Hash{}, nil)
	require.NoError(t, err)
	assert.Nil(t, rule.Validate(repo, commit))
}

func TestInstallModulesIdempotent(t *testing.T) {
	dir := t.TempDir()
	gitinterface.CreateTestRepository(t, dir)
	commit := commitMultipleFiles(t, dir, map[string]string{
		RequirementsPath:                "check_changelog\n",
		ModulePathPrefix + "check_changelog.lua": sampleLuaModule,
	}, "install module")

	repo, err := gitinterface.LoadRepository(dir)
	require.NoError(t, err)

	registry := ruledata.NewRegistry()
	require.NoError(t, InstallModules(repo, commit, registry))
	require.NoError(t, InstallModules(repo, commit, registry))
}

func TestInstallModulesNoRequirementsFile(t *testing.T) {
	dir := t.TempDir()
	gitinterface.CreateTestRepository(t, dir)
	commit := gitinterface.CommitTestFile(t, dir, "README.md", "hello", "init")

	repo, err := gitinterface.LoadRepository(dir)
	require.NoError(t, err)

	registry := ruledata.NewRegistry()
	assert.NoError(t, InstallModules(repo, commit, registry))
}

func TestInstallModulesMissingScript(t *testing.T) {
	dir := t.TempDir()
	gitinterface.CreateTestRepository(t, dir)
	commit := commitMultipleFiles(t, dir, map[string]string{
		RequirementsPath: "ghost_module\n",
	}, "dangling requirement")

	repo, err := gitinterface.LoadRepository(dir)
	require.NoError(t, err)

	registry := ruledata.NewRegistry()
	assert.Error(t, InstallModules(repo, commit, registry))
}

func TestToArgsMap(t *testing.T) {
	assert.Equal(t, map[string]any{}, toArgsMap(nil))
	assert.Equal(t, map[string]any{"a": 1}, toArgsMap(map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"value": "x"}, toArgsMap("x"))
}
