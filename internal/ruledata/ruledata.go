// SPDX-License-Identifier: Apache-2.0

// Package ruledata implements the declarative rule shape rule sets are
// written in: a leaf `(id, args)` pair, or a composite combining children
// with all/any/none semantics.
package ruledata

import (
	"errors"
	"fmt"
)

const (
	// KindAll requires every child to accept.
	KindAll = "all"
	// KindAny requires at least one child to accept.
	KindAny = "any"
	// KindNone always accepts and carries no children.
	KindNone = "none"
)

var (
	ErrInvalidRuleData = errors.New("value cannot be parsed as rule data")
	ErrEmptyComposite  = errors.New("composite rule must have at least one child")
)

// RuleData is a parsed, but not yet instantiated, rule definition: either a
// leaf naming a registry id and carrying arbitrary args, or a composite
// naming all/any/none and carrying children.
type RuleData struct {
	ID       string
	Args     any
	Children []RuleData
}

// IsComposite reports whether the value is all/any/none rather than a leaf.
func (r RuleData) IsComposite() bool {
	return r.ID == KindAll || r.ID == KindAny || r.ID == KindNone
}

// Parse converts a decoded YAML/JSON value into a RuleData per the parse
// rules:
//
//   - a string becomes a leaf with that id and no args;
//   - a single-key object whose value is not itself an object becomes a leaf
//     named by that key, with the value as args;
//   - a single-key object whose value is an object becomes a leaf named by
//     that key, with the nested object as structured args;
//   - a single-key object keyed by a composite keyword (all/any/none)
//     becomes a composite; all/any take a list of child rule values;
//   - a multi-key object is "compact form": it must carry an "id" string
//     key naming the rule, and the remaining sibling keys become its args.
//     A multi-key object without "id" is ErrInvalidRuleData.
func Parse(value any) (RuleData, error) {
	switch v := value.(type) {
	case string:
		return RuleData{ID: v}, nil

	case map[string]any:
		return parseObject(v)

	default:
		return RuleData{}, fmt.Errorf("%w: unsupported value type %T", ErrInvalidRuleData, value)
	}
}

func parseObject(obj map[string]any) (RuleData, error) {
	if len(obj) == 0 {
		return RuleData{}, fmt.Errorf("%w: empty object", ErrInvalidRuleData)
	}

	if composite, isComposite, err := tryParseComposite(obj); isComposite {
		return composite, err
	}

	if len(obj) == 1 {
		for key, args := range obj {
			return RuleData{ID: key, Args: args}, nil
		}
	}

	// Compact form: an explicit "id" key names the rule, and every sibling
	// key becomes a field of its args object.
	rawID, hasID := obj["id"]
	if !hasID {
		return RuleData{}, fmt.Errorf("%w: multi-key object must carry an 'id' field", ErrInvalidRuleData)
	}

	id, ok := rawID.(string)
	if !ok {
		return RuleData{}, fmt.Errorf("%w: 'id' field must be a string", ErrInvalidRuleData)
	}

	args := make(map[string]any, len(obj)-1)
	for key, value := range obj {
		if key == "id" {
			continue
		}
		args[key] = value
	}

	return RuleData{ID: id, Args: args}, nil
}

// tryParseComposite handles the all/any/none keywords. Returns isComposite
// so the caller can distinguish "not a composite" from "composite, but
// failed to parse".
func tryParseComposite(obj map[string]any) (RuleData, bool, error) {
	if len(obj) != 1 {
		return RuleData{}, false, nil
	}

	for key, value := range obj {
		switch key {
		case KindAll, KindAny:
			list, ok := value.([]any)
			if !ok {
				return RuleData{}, true, fmt.Errorf("%w: %s expects a list of rules", ErrInvalidRuleData, key)
			}

			if len(list) == 0 {
				return RuleData{}, true, fmt.Errorf("%w: %s", ErrEmptyComposite, key)
			}

			children := make([]RuleData, 0, len(list))
			for _, item := range list {
				child, err := Parse(item)
				if err != nil {
					return RuleData{}, true, err
				}
				children = append(children, child)
			}

			canonical, err := canonicalize(key, children)
			return canonical, true, err

		case KindNone:
			return RuleData{ID: KindNone}, true, nil

		default:
			return RuleData{}, false, nil
		}
	}

	return RuleData{}, false, nil
}

// ParseList parses a list of rule-data values and applies the k=0/1/≥2
// canonicalisation rule.
func ParseList(list []any) (RuleData, error) {
	children := make([]RuleData, 0, len(list))
	for _, item := range list {
		child, err := Parse(item)
		if err != nil {
			return RuleData{}, err
		}
		children = append(children, child)
	}

	return canonicalize(KindAll, children)
}

// canonicalize applies k=0 -> none, k=1 -> that rule, k>=2 -> composite(kind).
func canonicalize(kind string, children []RuleData) (RuleData, error) {
	switch len(children) {
	case 0:
		return RuleData{ID: KindNone}, nil
	case 1:
		return children[0], nil
	default:
		return RuleData{ID: kind, Children: children}, nil
	}
}

// Emit converts a RuleData back into a plain value suitable for YAML
// encoding, the inverse of Parse.
func Emit(r RuleData) any {
	if r.IsComposite() {
		if r.ID == KindNone {
			return map[string]any{KindNone: nil}
		}

		children := make([]any, 0, len(r.Children))
		for _, child := range r.Children {
			children = append(children, Emit(child))
		}
		return map[string]any{r.ID: children}
	}

	if r.Args == nil {
		return r.ID
	}

	return map[string]any{r.ID: r.Args}
}
