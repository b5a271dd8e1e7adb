// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"errors"
	"fmt"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/barkvcs/bark/internal/ruledata"
)

// RequireSignatureID is the rule id named in spec.md §4.I.
const RequireSignatureID = "require_signature"

type requireSignatureArgs struct {
	AuthorizedKeys string `yaml:"authorized_keys"`
}

// requireSignature implements spec.md §4.I's require_signature: the commit
// object carries a detached signature verifying under exactly one of the
// keys matching authorized_keys in the validator's key directory.
type requireSignature struct {
	validator gitinterface.Hash
	glob      string
}

func newRequireSignature(args any, validator gitinterface.Hash, _ ruledata.CacheReader) (ruledata.CommitRule, error) {
	var parsed requireSignatureArgs
	if err := decodeArgs(args, &parsed); err != nil {
		return nil, fmt.Errorf("%s: %w", RequireSignatureID, err)
	}
	if parsed.AuthorizedKeys == "" {
		return nil, fmt.Errorf("%s: missing required 'authorized_keys' argument", RequireSignatureID)
	}

	return &requireSignature{validator: validator, glob: parsed.AuthorizedKeys}, nil
}

func (r *requireSignature) Validate(repo *gitinterface.Repository, target gitinterface.Hash) *ruledata.RuleViolation {
	keys, err := loadAuthorizedKeys(repo, r.validator, r.glob)
	if err != nil {
		return ruledata.NewViolation(fmt.Sprintf("%s: %v", RequireSignatureID, err))
	}
	if len(keys) == 0 {
		return ruledata.NewViolation(fmt.Sprintf("%s: no authorized keys match %q in %s", RequireSignatureID, r.glob, KeyDirectory))
	}

	var unsigned bool
	for _, key := range keys {
		err := repo.VerifySignature(target, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gitinterface.ErrUnsignedCommit):
			unsigned = true
		}
	}

	if unsigned {
		return ruledata.NewViolation(fmt.Sprintf("%s: commit %s carries no signature", RequireSignatureID, target))
	}
	return ruledata.NewViolation(fmt.Sprintf("%s: commit %s was signed by an untrusted key", RequireSignatureID, target))
}
