// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// AlwaysPassID and AlwaysFailID are the rule ids named in spec.md §4.I. They
// take no arguments and exist for composing and testing policy documents.
const (
	AlwaysPassID = "always_pass"
	AlwaysFailID = "always_fail"
)

type alwaysPass struct{}

func newAlwaysPass(_ any, _ gitinterface.Hash, _ ruledata.CacheReader) (ruledata.CommitRule, error) {
	return alwaysPass{}, nil
}

func (alwaysPass) Validate(*gitinterface.Repository, gitinterface.Hash) *ruledata.RuleViolation {
	return nil
}

type alwaysFail struct{}

func newAlwaysFail(_ any, _ gitinterface.Hash, _ ruledata.CacheReader) (ruledata.CommitRule, error) {
	return alwaysFail{}, nil
}

func (alwaysFail) Validate(_ *gitinterface.Repository, target gitinterface.Hash) *ruledata.RuleViolation {
	return ruledata.NewViolation(AlwaysFailID + ": commit " + target.String() + " rejected unconditionally")
}
