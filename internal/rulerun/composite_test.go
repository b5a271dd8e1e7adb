// SPDX-License-Identifier: Apache-2.0

package rulerun

import (
	"testing"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCommitRule struct {
	violation *ruledata.RuleViolation
}

func (f fixedCommitRule) Validate(*gitinterface.Repository, gitinterface.Hash) *ruledata.RuleViolation {
	return f.violation
}

type fixedRefRule struct {
	violation *ruledata.RuleViolation
}

func (f fixedRefRule) Validate(*gitinterface.Repository, gitinterface.Hash, string) *ruledata.RuleViolation {
	return f.violation
}

func pass() ruledata.CommitRule  { return fixedCommitRule{} }
func fail(msg string) ruledata.CommitRule {
	return fixedCommitRule{violation: ruledata.NewViolation(msg)}
}

func TestCompositeCommitRuleAllPasses(t *testing.T) {
	rule := compositeCommitRule{kind: ruledata.KindAll, children: []ruledata.CommitRule{pass(), pass()}}
	assert.Nil(t, rule.Validate(nil, gitinterface.ZeroHash))
}

func TestCompositeCommitRuleAllFailsOnSingleChild(t *testing.T) {
	rule := compositeCommitRule{kind: ruledata.KindAll, children: []ruledata.CommitRule{pass(), fail("nope")}}
	violation := rule.Validate(nil, gitinterface.ZeroHash)
	require.NotNil(t, violation)
	assert.Equal(t, "nope", violation.Message)
}

func TestCompositeCommitRuleAllAggregatesMultipleFailures(t *testing.T) {
	rule := compositeCommitRule{kind: ruledata.KindAll, children: []ruledata.CommitRule{fail("a"), fail("b")}}
	violation := rule.Validate(nil, gitinterface.ZeroHash)
	require.NotNil(t, violation)
	require.Len(t, violation.Children, 2)
}

func TestCompositeCommitRuleAnyPassesIfOneSucceeds(t *testing.T) {
	rule := compositeCommitRule{kind: ruledata.KindAny, children: []ruledata.CommitRule{fail("a"), pass()}}
	assert.Nil(t, rule.Validate(nil, gitinterface.ZeroHash))
}

func TestCompositeCommitRuleAnyFailsIfAllFail(t *testing.T) {
	rule := compositeCommitRule{kind: ruledata.KindAny, children: []ruledata.CommitRule{fail("a"), fail("b")}}
	violation := rule.Validate(nil, gitinterface.ZeroHash)
	require.NotNil(t, violation)
}

func TestCompositeCommitRuleNoShortCircuit(t *testing.T) {
	calls := 0
	counting := fixedCommitRuleFunc(func() *ruledata.RuleViolation {
		calls++
		return ruledata.NewViolation("fail")
	})
	rule := compositeCommitRule{kind: ruledata.KindAny, children: []ruledata.CommitRule{counting, counting, counting}}
	rule.Validate(nil, gitinterface.ZeroHash) //nolint:errcheck
	assert.Equal(t, 3, calls)
}

type fixedCommitRuleFunc func() *ruledata.RuleViolation

func (f fixedCommitRuleFunc) Validate(*gitinterface.Repository, gitinterface.Hash) *ruledata.RuleViolation {
	return f()
}

func TestCompositeRefRuleAllAndAny(t *testing.T) {
	allRule := compositeRefRule{kind: ruledata.KindAll, children: []ruledata.RefRule{
		fixedRefRule{}, fixedRefRule{violation: ruledata.NewViolation("x")},
	}}
	require.NotNil(t, allRule.Validate(nil, gitinterface.ZeroHash, "refs/heads/main"))

	anyRule := compositeRefRule{kind: ruledata.KindAny, children: []ruledata.RefRule{
		fixedRefRule{}, fixedRefRule{violation: ruledata.NewViolation("x")},
	}}
	assert.Nil(t, anyRule.Validate(nil, gitinterface.ZeroHash, "refs/heads/main"))
}

func TestNoneRulesAlwaysPass(t *testing.T) {
	assert.Nil(t, noneCommitRule{}.Validate(nil, gitinterface.ZeroHash))
	assert.Nil(t, noneRefRule{}.Validate(nil, gitinterface.ZeroHash, "refs/heads/main"))
}
