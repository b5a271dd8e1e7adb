// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"errors"
)

var (
	ErrNotCommit                = errors.New("object is not a commit")
	ErrUnsignedCommit           = errors.New("commit has no attached signature")
	ErrIncorrectVerificationKey = errors.New("signature does not verify against the provided key")
)

// VerifySignature verifies the cryptographic signature attached to the
// specified commit object against key. It returns ErrIncorrectVerificationKey
// if the commit is signed but the signature doesn't verify against key, and
// ErrUnsignedCommit if the commit carries no signature at all.
func (r *Repository) VerifySignature(commitID Hash, key *Key) error {
	if err := r.ensureIsCommit(commitID); err != nil {
		return err
	}

	return r.verifyCommitSignature(commitID, key)
}
