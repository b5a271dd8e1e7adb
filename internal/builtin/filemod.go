// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"fmt"
	"regexp"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// FileNotModifiedID is the rule id named in spec.md §4.I.
const FileNotModifiedID = "file_not_modified"

// fileNotModified implements spec.md §4.I's file_not_modified: none of the
// paths changed between the validator commit and target match pattern.
type fileNotModified struct {
	validator gitinterface.Hash
	pattern   *regexp.Regexp
}

func newFileNotModified(args any, validator gitinterface.Hash, _ ruledata.CacheReader) (ruledata.CommitRule, error) {
	pattern, err := decodeStringArg(args, "pattern")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FileNotModifiedID, err)
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid pattern %q: %w", FileNotModifiedID, pattern, err)
	}

	return &fileNotModified{validator: validator, pattern: compiled}, nil
}

func (r *fileNotModified) Validate(repo *gitinterface.Repository, target gitinterface.Hash) *ruledata.RuleViolation {
	changed, err := repo.FilesModified(r.validator, target)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", FileNotModifiedID, err))
	}

	for _, path := range changed.Contents() {
		if r.pattern.MatchString(path) {
			return ruledata.NewViolation(fmt.Sprintf("%s: %s modifies %s, matching protected pattern %q", FileNotModifiedID, target, path, r.pattern.String()))
		}
	}
	return nil
}
