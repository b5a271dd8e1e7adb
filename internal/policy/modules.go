// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/luasandbox"
	"github.com/barkvcs/bark/internal/ruledata"
)

// ParseRequirements parses RequirementsPath's contents: one module name per
// line, blank lines and '#'-prefixed comments ignored.
func ParseRequirements(blob []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(blob))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// InstallModules implements the on_valid side of spec.md §4.G: once commit
// is trusted, every module named in its requirements.txt is registered as a
// commit rule, sandboxed Lua script and all, under its own name. A module
// already registered (from an earlier commit on the same walk, or an
// earlier walk in this process) is left alone: modules are immutable once
// loaded, matching the registry's own "no re-registration" rule.
func InstallModules(repo *gitinterface.Repository, commit gitinterface.Hash, registry *ruledata.Registry) error {
	treeID, err := repo.GetCommitTreeID(commit)
	if err != nil {
		return fmt.Errorf("unable to resolve tree of %s: %w", commit, err)
	}

	blob, err := repo.ReadFile(treeID, RequirementsPath)
	if err != nil {
		if errors.Is(err, gitinterface.ErrTreeDoesNotHavePath) {
			return nil
		}
		return fmt.Errorf("unable to read %s at %s: %w", RequirementsPath, commit, err)
	}

	for _, name := range ParseRequirements(blob) {
		if _, err := registry.CommitRuleConstructorFor(name); err == nil {
			continue
		}

		scriptPath := ModulePathPrefix + name + ".lua"
		script, err := repo.ReadFile(treeID, scriptPath)
		if err != nil {
			return fmt.Errorf("rule module %q named in %s but not found at %s: %w", name, RequirementsPath, scriptPath, err)
		}

		if err := registry.RegisterCommitRule(name, newLuaModuleConstructor(string(script))); err != nil {
			return fmt.Errorf("unable to register rule module %q: %w", name, err)
		}
	}

	return nil
}

// newLuaModuleConstructor closes over a module's Lua source and returns a
// ruledata.CommitRuleConstructor that binds it to one leaf rule instance's
// args.
func newLuaModuleConstructor(script string) ruledata.CommitRuleConstructor {
	return func(args any, _ gitinterface.Hash, _ ruledata.CacheReader) (ruledata.CommitRule, error) {
		return &luaModuleRule{script: script, args: toArgsMap(args)}, nil
	}
}

// luaModuleRule adapts a sandboxed Lua module into a ruledata.CommitRule. A
// fresh luasandbox.LuaEnvironment is created per Validate call, per
// luasandbox's own documented contract that an environment must not carry
// state across the commits it judges.
type luaModuleRule struct {
	script string
	args   map[string]any
}

func (m *luaModuleRule) Validate(repo *gitinterface.Repository, target gitinterface.Hash) *ruledata.RuleViolation {
	env, err := luasandbox.NewLuaEnvironment(context.Background(), repo)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("rule module: unable to start sandbox: %v", err))
	}
	defer env.Cleanup()

	accepted, message, err := env.RunValidate(m.script, m.args, target)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("rule module: %v", err))
	}
	if !accepted {
		if message == "" {
			message = fmt.Sprintf("rule module rejected commit %s", target)
		}
		return ruledata.NewViolation(message)
	}
	return nil
}

// toArgsMap coerces a parsed ruledata.RuleData's Args (any scalar, map, or
// nil, depending on how the rule was written in YAML) into the map
// luasandbox.RunValidate expects. A non-map scalar is wrapped under a
// single "value" key so the Lua module still receives something useful.
func toArgsMap(args any) map[string]any {
	switch v := args.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return v
	default:
		return map[string]any{"value": v}
	}
}
