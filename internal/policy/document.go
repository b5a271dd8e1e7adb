// SPDX-License-Identifier: Apache-2.0

// Package policy implements the self-hosted administrative branch
// (spec.md §4.G): loading and validating refs/heads/bark_rules, parsing the
// BarkRules document it carries, installing the rule modules it names, and
// resolving which bootstrap(s) and ref rule(s) govern any other reference.
package policy

import (
	"fmt"

	"github.com/barkvcs/bark/internal/engine"
	"github.com/barkvcs/bark/internal/gitinterface"
	"gopkg.in/yaml.v3"
)

const (
	// AdminRef is the fixed reference the administrative branch always
	// lives on, per spec.md §4.G.
	AdminRef = "refs/heads/bark_rules"

	// BarkRulesPath is the policy document's location in every commit on
	// AdminRef.
	BarkRulesPath = ".bark/bark_rules.yaml"

	// RequirementsPath lists rule modules by name, one per line, adjacent
	// to BarkRulesPath.
	RequirementsPath = ".bark/requirements.txt"

	// ModulePathPrefix is where a named rule module's Lua source is
	// expected to live: ModulePathPrefix + name + ".lua".
	ModulePathPrefix = ".bark/modules/"
)

// BarkRulesDocument is the parsed form of .bark/bark_rules.yaml (spec.md
// §6): the rules governing the admin branch itself, and a list of project
// entries binding other refs to a bootstrap and rule set.
type BarkRulesDocument struct {
	BarkRules []any          `yaml:"bark_rules"`
	Project   []ProjectEntry `yaml:"project"`
}

// ProjectEntry binds one bootstrap commit to the refs it governs.
type ProjectEntry struct {
	Bootstrap string     `yaml:"bootstrap"`
	Refs      []RefEntry `yaml:"refs"`
}

// RefEntry names the refs (by regex pattern) a bootstrap's rule set
// applies to.
type RefEntry struct {
	Pattern string `yaml:"pattern"`
	Rules   []any  `yaml:"rules"`
}

// CommitRulesDocument is the parsed form of .bark/commit_rules.yaml
// (spec.md §6): every commit governed by commit rules carries one of
// these at its tree root.
type CommitRulesDocument struct {
	Rules []any `yaml:"rules"`
}

// LoadBarkRulesDocument reads and parses BarkRulesPath out of commit's
// tree.
func LoadBarkRulesDocument(repo *gitinterface.Repository, commit gitinterface.Hash) (*BarkRulesDocument, error) {
	var doc BarkRulesDocument
	if err := readYAMLFile(repo, commit, BarkRulesPath, &doc); err != nil {
		return nil, fmt.Errorf("unable to load %s at %s: %w", BarkRulesPath, commit, err)
	}
	return &doc, nil
}

// LoadCommitRulesDocument reads and parses CommitRulesPath out of commit's
// tree. Callers distinguish a missing file (gitinterface.ErrTreeDoesNotHavePath)
// from a parse failure, since spec.md §7 treats them differently depending
// on whether commit sits on the admin branch.
func LoadCommitRulesDocument(repo *gitinterface.Repository, commit gitinterface.Hash) (*CommitRulesDocument, error) {
	var doc CommitRulesDocument
	if err := readYAMLFile(repo, commit, engine.CommitRulesPath, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func readYAMLFile(repo *gitinterface.Repository, commit gitinterface.Hash, path string, out any) error {
	treeID, err := repo.GetCommitTreeID(commit)
	if err != nil {
		return fmt.Errorf("unable to resolve tree of %s: %w", commit, err)
	}

	blob, err := repo.ReadFile(treeID, path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(blob, out); err != nil {
		return fmt.Errorf("unable to parse %s: %w", path, err)
	}
	return nil
}
