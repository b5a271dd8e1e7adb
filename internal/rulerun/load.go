// SPDX-License-Identifier: Apache-2.0

// Package rulerun instantiates live CommitRule and RefRule trees from parsed
// ruledata.RuleData, dispatching leaves to the registry and composites to
// the all/any/none evaluators below.
package rulerun

import (
	"fmt"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// LoadCommitRule dispatches on data.ID: all/any/none are handled directly,
// anything else is looked up in registry and instantiated against
// validator and cache.
func LoadCommitRule(data ruledata.RuleData, registry *ruledata.Registry, validator gitinterface.Hash, cache ruledata.CacheReader) (ruledata.CommitRule, error) {
	switch data.ID {
	case ruledata.KindNone:
		return noneCommitRule{}, nil

	case ruledata.KindAll, ruledata.KindAny:
		children := make([]ruledata.CommitRule, 0, len(data.Children))
		for _, child := range data.Children {
			rule, err := LoadCommitRule(child, registry, validator, cache)
			if err != nil {
				return nil, err
			}
			children = append(children, rule)
		}
		return compositeCommitRule{kind: data.ID, children: children}, nil

	default:
		constructor, err := registry.CommitRuleConstructorFor(data.ID)
		if err != nil {
			return nil, err
		}
		rule, err := constructor(data.Args, validator, cache)
		if err != nil {
			return nil, fmt.Errorf("unable to construct rule %q: %w", data.ID, err)
		}
		return rule, nil
	}
}

// LoadRefRule is the RefRule counterpart of LoadCommitRule.
func LoadRefRule(data ruledata.RuleData, registry *ruledata.Registry, validator gitinterface.Hash, cache ruledata.CacheReader) (ruledata.RefRule, error) {
	switch data.ID {
	case ruledata.KindNone:
		return noneRefRule{}, nil

	case ruledata.KindAll, ruledata.KindAny:
		children := make([]ruledata.RefRule, 0, len(data.Children))
		for _, child := range data.Children {
			rule, err := LoadRefRule(child, registry, validator, cache)
			if err != nil {
				return nil, err
			}
			children = append(children, rule)
		}
		return compositeRefRule{kind: data.ID, children: children}, nil

	default:
		constructor, err := registry.RefRuleConstructorFor(data.ID)
		if err != nil {
			return nil, err
		}
		rule, err := constructor(data.Args, validator, cache)
		if err != nil {
			return nil, fmt.Errorf("unable to construct rule %q: %w", data.ID, err)
		}
		return rule, nil
	}
}

// CombineCommitRules implements spec.md §4.E step 9: two or more validators
// are wrapped in an implicit "all", exactly one validator's rule is used
// directly.
func CombineCommitRules(rules []ruledata.CommitRule) ruledata.CommitRule {
	if len(rules) == 1 {
		return rules[0]
	}
	return compositeCommitRule{kind: ruledata.KindAll, children: rules}
}

// CombineRefRules is the RefRule counterpart of CombineCommitRules. Used by
// internal/verifier to AND a matched entry's document-specified ref rules
// with the canonical fast-forward-only precondition, which has no document
// spelling of its own.
func CombineRefRules(rules []ruledata.RefRule) ruledata.RefRule {
	if len(rules) == 1 {
		return rules[0]
	}
	return compositeRefRule{kind: ruledata.KindAll, children: rules}
}
