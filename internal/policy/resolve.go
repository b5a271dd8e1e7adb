// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"regexp"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// Match is one project entry's resolved governance over a ref: the
// bootstrap commit that seeds the entry's commit-rule walk (spec.md §4.E),
// and the ref rule(s) (spec.md §4.F) its matching patterns contribute.
type Match struct {
	Bootstrap gitinterface.Hash
	RefRule   ruledata.RuleData
}

// ResolveRef implements spec.md §4.G's ref-to-bootstrap(s) resolution: every
// project entry with at least one refs[].pattern matching ref contributes a
// Match. A ref may match multiple entries; per §4.G the head must satisfy
// all of them, so the caller runs one commit-rule walk and one ref-rule
// evaluation per returned Match and ANDs the results. A ref matching zero
// entries is unprotected: ResolveRef returns an empty, non-nil slice and no
// error. The caller (internal/verifier) treats that as success only when
// AllowUnprotected is set, and otherwise returns ErrNoRulesDefined.
func ResolveRef(doc *BarkRulesDocument, ref string) ([]Match, error) {
	matches := make([]Match, 0)

	for _, project := range doc.Project {
		var matched []RefEntry
		for _, entry := range project.Refs {
			re, err := regexp.Compile(entry.Pattern)
			if err != nil {
				return nil, fmt.Errorf("project entry %s: invalid ref pattern %q: %w", project.Bootstrap, entry.Pattern, err)
			}
			if re.MatchString(ref) {
				matched = append(matched, entry)
			}
		}
		if len(matched) == 0 {
			continue
		}

		bootstrap, err := gitinterface.NewHash(project.Bootstrap)
		if err != nil {
			return nil, fmt.Errorf("project entry has invalid bootstrap %q: %w", project.Bootstrap, err)
		}

		refRule, err := combineRefEntries(matched)
		if err != nil {
			return nil, fmt.Errorf("project entry %s: %w", project.Bootstrap, err)
		}

		matches = append(matches, Match{Bootstrap: bootstrap, RefRule: refRule})
	}

	return matches, nil
}

// combineRefEntries canonicalises the rules carried by every ref pattern
// within a project entry that matched the ref under test, via the same
// k=0/1/>=2 rule ruledata.ParseList applies to a single rules list.
func combineRefEntries(matched []RefEntry) (ruledata.RuleData, error) {
	var all []any
	for _, entry := range matched {
		all = append(all, entry.Rules...)
	}
	return ruledata.ParseList(all)
}

// AdminRuleData parses the top-level bark_rules list: the ref rule(s)
// (spec.md §4.F) governing updates to AdminRef itself. The admin branch's
// own commits are still judged by commit rules via the ordinary walk
// (spec.md §4.E), seeded from the persisted admin bootstrap rather than
// from this document.
func AdminRuleData(doc *BarkRulesDocument) (ruledata.RuleData, error) {
	return ruledata.ParseList(doc.BarkRules)
}
