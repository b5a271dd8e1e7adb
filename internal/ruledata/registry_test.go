// SPDX-License-Identifier: Apache-2.0

package ruledata

import (
	"testing"

	"github.com/barkvcs/bark/internal/gitinterface"
	"github.com/stretchr/testify/require"
)

func TestRegistryRejectsReservedIDs(t *testing.T) {
	r := NewRegistry()
	err := r.RegisterCommitRule(KindAll, func(any, gitinterface.Hash, CacheReader) (CommitRule, error) {
		return nil, nil
	})
	require.Error(t, err)
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	constructor := func(any, gitinterface.Hash, CacheReader) (CommitRule, error) { return nil, nil }

	require.NoError(t, r.RegisterCommitRule("always_pass", constructor))
	require.Error(t, r.RegisterCommitRule("always_pass", constructor))
}

func TestRegistryUnknownIDIsFatal(t *testing.T) {
	r := NewRegistry()
	_, err := r.CommitRuleConstructorFor("does_not_exist")
	require.ErrorIs(t, err, ErrUnknownRuleID)
}
