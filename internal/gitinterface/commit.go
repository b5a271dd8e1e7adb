// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Author describes the identity (name and email) attached to a commit.
type Author struct {
	Name  string
	Email string
}

// verifyCommitSignature verifies the commit's attached signature against
// key. It returns ErrUnsignedCommit if the commit carries no signature.
func (r *Repository) verifyCommitSignature(commitID Hash, key *Key) error {
	goGitRepo, err := r.GetGoGitRepository()
	if err != nil {
		return fmt.Errorf("error opening repository: %w", err)
	}

	commit, err := goGitRepo.CommitObject(plumbing.NewHash(commitID.String()))
	if err != nil {
		return fmt.Errorf("unable to load commit object: %w", err)
	}

	if commit.PGPSignature == "" {
		return ErrUnsignedCommit
	}

	switch key.Type {
	case KeyTypeGPG, KeyTypeSSH:
		commitContents, err := getCommitBytesWithoutSignature(commit)
		if err != nil {
			return fmt.Errorf("unable to canonicalise commit for signature verification: %w", err)
		}

		if err := key.Verify(commitContents, []byte(commit.PGPSignature)); err != nil {
			return errors.Join(ErrIncorrectVerificationKey, err)
		}
		return nil
	}

	return ErrUnknownKeyType
}

// GetCommitObjectBytes returns the canonical encoding of commitID's commit
// object with any signature header stripped, the exact bytes a detached
// signature over that commit must have been computed against.
func (r *Repository) GetCommitObjectBytes(commitID Hash) ([]byte, error) {
	if err := r.ensureIsCommit(commitID); err != nil {
		return nil, err
	}

	goGitRepo, err := r.GetGoGitRepository()
	if err != nil {
		return nil, fmt.Errorf("error opening repository: %w", err)
	}

	commit, err := goGitRepo.CommitObject(plumbing.NewHash(commitID.String()))
	if err != nil {
		return nil, fmt.Errorf("unable to load commit object: %w", err)
	}

	return getCommitBytesWithoutSignature(commit)
}

// GetCommitMessage returns the commit's message.
func (r *Repository) GetCommitMessage(commitID Hash) (string, error) {
	if err := r.ensureIsCommit(commitID); err != nil {
		return "", err
	}

	commitMessage, err := r.executor("show", "-s", "--format=%B", commitID.String()).executeString()
	if err != nil {
		return "", fmt.Errorf("unable to identify message for commit '%s': %w", commitID.String(), err)
	}

	return commitMessage, nil
}

// GetCommitAuthor returns the commit's recorded author identity.
func (r *Repository) GetCommitAuthor(commitID Hash) (Author, error) {
	if err := r.ensureIsCommit(commitID); err != nil {
		return Author{}, err
	}

	stdOut, err := r.executor("show", "-s", "--format=%an%x00%ae", commitID.String()).executeString()
	if err != nil {
		return Author{}, fmt.Errorf("unable to identify author for commit '%s': %w", commitID.String(), err)
	}

	fields := strings.SplitN(stdOut, "\x00", 2)
	if len(fields) != 2 {
		return Author{}, fmt.Errorf("unexpected author format for commit '%s'", commitID.String())
	}

	return Author{Name: fields[0], Email: fields[1]}, nil
}

// GetCommitTreeID returns the commit's Git tree ID.
func (r *Repository) GetCommitTreeID(commitID Hash) (Hash, error) {
	if err := r.ensureIsCommit(commitID); err != nil {
		return ZeroHash, err
	}

	stdOut, err := r.executor("rev-parse", fmt.Sprintf("%s^{tree}", commitID.String())).executeString()
	if err != nil {
		return ZeroHash, fmt.Errorf("unable to identify tree for commit '%s': %w", commitID.String(), err)
	}

	hash, err := NewHash(stdOut)
	if err != nil {
		return ZeroHash, fmt.Errorf("invalid tree for commit ID '%s': %w", commitID, err)
	}
	return hash, nil
}

// GetCommitParentIDs returns the commit's parent commit IDs, in recorded
// order. A root commit returns an empty slice.
func (r *Repository) GetCommitParentIDs(commitID Hash) ([]Hash, error) {
	if err := r.ensureIsCommit(commitID); err != nil {
		return nil, err
	}

	stdOut, err := r.executor("rev-parse", fmt.Sprintf("%s^@", commitID.String())).executeString()
	if err != nil {
		return nil, fmt.Errorf("unable to identify parents for commit '%s': %w", commitID.String(), err)
	}

	commitIDs := []Hash{}
	for _, line := range strings.Split(stdOut, "\n") {
		if line == "" {
			continue
		}

		hash, err := NewHash(line)
		if err != nil {
			return nil, fmt.Errorf("invalid parent commit ID '%s': %w", line, err)
		}

		commitIDs = append(commitIDs, hash)
	}

	return commitIDs, nil
}

// ensureIsCommit is a helper to check that the ID represents a Git commit
// object.
func (r *Repository) ensureIsCommit(commitID Hash) error {
	objType, err := r.executor("cat-file", "-t", commitID.String()).executeString()
	if err != nil {
		return fmt.Errorf("unable to inspect if object is commit: %w", err)
	} else if objType != "commit" {
		return fmt.Errorf("%w: '%s' is a %s object", ErrNotCommit, commitID.String(), objType)
	}

	return nil
}

func getCommitBytesWithoutSignature(commit *object.Commit) ([]byte, error) {
	commitEncoded := memory.NewStorage().NewEncodedObject()
	if err := commit.EncodeWithoutSignature(commitEncoded); err != nil {
		return nil, err
	}
	r, err := commitEncoded.Reader()
	if err != nil {
		return nil, err
	}

	return io.ReadAll(r)
}
