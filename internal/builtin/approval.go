// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"fmt"
	"regexp"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// RequireApprovalID is the rule id named in spec.md §4.I.
const RequireApprovalID = "require_approval"

type requireApprovalArgs struct {
	AuthorizedKeys string `yaml:"authorized_keys"`
	Threshold      int    `yaml:"threshold"`
}

var (
	pgpSignatureBlock = regexp.MustCompile(`(?s)-----BEGIN PGP SIGNATURE-----.*?-----END PGP SIGNATURE-----`)
	sshSignatureBlock = regexp.MustCompile(`(?s)-----BEGIN SSH SIGNATURE-----.*?-----END SSH SIGNATURE-----`)
)

// requireApproval implements spec.md §4.I's require_approval: a merge
// commit's message carries at least threshold distinct detached signatures,
// each verifying against a distinct authorized key, over the canonical bytes
// of the incoming (last) parent's commit object.
type requireApproval struct {
	validator gitinterface.Hash
	glob      string
	threshold int
}

func newRequireApproval(args any, validator gitinterface.Hash, _ ruledata.CacheReader) (ruledata.CommitRule, error) {
	var parsed requireApprovalArgs
	if err := decodeArgs(args, &parsed); err != nil {
		return nil, fmt.Errorf("%s: %w", RequireApprovalID, err)
	}
	if parsed.AuthorizedKeys == "" {
		return nil, fmt.Errorf("%s: missing required 'authorized_keys' argument", RequireApprovalID)
	}
	if parsed.Threshold < 1 {
		return nil, fmt.Errorf("%s: threshold must be at least 1", RequireApprovalID)
	}

	return &requireApproval{validator: validator, glob: parsed.AuthorizedKeys, threshold: parsed.Threshold}, nil
}

func (r *requireApproval) Validate(repo *gitinterface.Repository, target gitinterface.Hash) *ruledata.RuleViolation {
	parents, err := repo.GetCommitParentIDs(target)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", RequireApprovalID, err))
	}
	if len(parents) <= 1 {
		return ruledata.NewViolation(fmt.Sprintf("%s: commit %s is not a merge, has no incoming parent to approve", RequireApprovalID, target))
	}
	incoming := parents[len(parents)-1]

	incomingBytes, err := repo.GetCommitObjectBytes(incoming)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", RequireApprovalID, err))
	}

	message, err := repo.GetCommitMessage(target)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", RequireApprovalID, err))
	}

	var signatures [][]byte
	for _, match := range pgpSignatureBlock.FindAllString(message, -1) {
		signatures = append(signatures, []byte(match))
	}
	for _, match := range sshSignatureBlock.FindAllString(message, -1) {
		signatures = append(signatures, []byte(match))
	}

	if len(signatures) == 0 {
		return ruledata.NewViolation(fmt.Sprintf("%s: commit %s carries no embedded approval signatures", RequireApprovalID, target))
	}

	keys, err := loadAuthorizedKeys(repo, r.validator, r.glob)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", RequireApprovalID, err))
	}

	// Approvals are deduplicated by key fingerprint, not raw signature bytes:
	// the same approver signing twice counts once.
	approvedBy := map[string]struct{}{}
	for _, key := range keys {
		if _, already := approvedBy[key.Fingerprint]; already {
			continue
		}
		for _, signature := range signatures {
			if err := key.Verify(incomingBytes, signature); err == nil {
				approvedBy[key.Fingerprint] = struct{}{}
				break
			}
		}
	}

	if len(approvedBy) < r.threshold {
		return ruledata.NewViolation(fmt.Sprintf("%s: commit %s has %d of %d required approvals", RequireApprovalID, target, len(approvedBy), r.threshold))
	}
	return nil
}
