// SPDX-License-Identifier: Apache-2.0

// Package builtin implements the built-in rule set named in spec.md §4.I:
// signature, approval, parent-structure, and file-modification rules, plus
// the always_pass/always_fail test fixtures. Each rule is registered under
// its spec-given id via RegisterAll.
package builtin

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// decodeArgs re-marshals a parsed rule's args (already a plain
// map[string]any/string/int from ruledata.Parse) through YAML and back into
// a typed struct, so each rule's constructor can work with concrete fields
// instead of repeating type assertions.
func decodeArgs(args any, out any) error {
	raw, err := yaml.Marshal(args)
	if err != nil {
		return fmt.Errorf("unable to encode rule args: %w", err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unable to decode rule args: %w", err)
	}
	return nil
}

// decodeIntArg handles a rule whose sole parameter may appear either as a
// bare scalar (`{require_number_of_parents: 2}`, parsed by ruledata as
// Args=2 directly) or, in compact form, as a named field
// (`{id: require_number_of_parents, threshold: 2}`, parsed as
// Args=map[string]any{"threshold": 2}).
func decodeIntArg(args any, name string) (int, error) {
	if args == nil {
		return 0, fmt.Errorf("missing required %q argument", name)
	}

	if scalar, ok := args.(int); ok {
		return scalar, nil
	}

	var wrapper map[string]int
	if err := decodeArgs(args, &wrapper); err != nil {
		return 0, err
	}
	value, ok := wrapper[name]
	if !ok {
		return 0, fmt.Errorf("missing required %q argument", name)
	}
	return value, nil
}

// decodeStringArg is decodeIntArg's string counterpart, for rules whose sole
// parameter may be a bare string or a compact-form named field.
func decodeStringArg(args any, name string) (string, error) {
	if args == nil {
		return "", fmt.Errorf("missing required %q argument", name)
	}

	if scalar, ok := args.(string); ok {
		return scalar, nil
	}

	var wrapper map[string]string
	if err := decodeArgs(args, &wrapper); err != nil {
		return "", err
	}
	value, ok := wrapper[name]
	if !ok {
		return "", fmt.Errorf("missing required %q argument", name)
	}
	return value, nil
}
