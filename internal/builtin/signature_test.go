// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"testing"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSignature(t *testing.T) {
	dir := t.TempDir()
	repo := gitinterface.CreateTestRepository(t, dir)

	trustedPriv, trustedPub := generateSSHKeyPair(t, t.TempDir(), "trusted")
	untrustedPriv, _ := generateSSHKeyPair(t, t.TempDir(), "untrusted")

	validator := gitinterface.CommitTestFile(t, dir, ".bark/.pubkeys/trusted.pub", string(trustedPub), "add key")

	rule, err := newRequireSignature(map[string]any{"authorized_keys": "*.pub"}, validator, nil)
	require.NoError(t, err)

	t.Run("unsigned commit is rejected", func(t *testing.T) {
		unsigned := gitinterface.CommitTestFile(t, dir, "a.txt", "1", "unsigned")
		violation := rule.Validate(repo, unsigned)
		require.NotNil(t, violation)
		assert.Contains(t, violation.Message, "carries no signature")
	})

	t.Run("signed by untrusted key is rejected", func(t *testing.T) {
		configureSSHSigning(t, dir, untrustedPriv)
		commitID := commitSignedFile(t, dir, "b.txt", "2", "untrusted commit")
		hash, err := gitinterface.NewHash(commitID)
		require.NoError(t, err)

		violation := rule.Validate(repo, hash)
		require.NotNil(t, violation)
		assert.Contains(t, violation.Message, "untrusted key")
	})

	t.Run("signed by trusted key is accepted", func(t *testing.T) {
		configureSSHSigning(t, dir, trustedPriv)
		commitID := commitSignedFile(t, dir, "c.txt", "3", "trusted commit")
		hash, err := gitinterface.NewHash(commitID)
		require.NoError(t, err)

		assert.Nil(t, rule.Validate(repo, hash))
	})

	t.Run("missing authorized_keys argument is a constructor error", func(t *testing.T) {
		_, err := newRequireSignature(map[string]any{}, validator, nil)
		assert.Error(t, err)
	})
}
