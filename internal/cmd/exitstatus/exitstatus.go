// SPDX-License-Identifier: Apache-2.0

// Package exitstatus maps an error returned from the command tree to the
// process exit code spec.md §6 defines: 0 success, 1 rule violation or a
// cancelled transaction, any other non-zero code reserved for
// configuration or parse failures.
package exitstatus

import (
	"errors"

	"github.com/barkvcs/bark/internal/engine"
	"github.com/barkvcs/bark/internal/verifier"
)

const (
	Success     = 0
	Rejected    = 1
	ConfigError = 2
)

// ForError returns the exit code err should produce at the CLI boundary.
// A nil err is Success.
func ForError(err error) int {
	if err == nil {
		return Success
	}

	var violationErr *engine.ViolationError
	var refErr *verifier.ViolatedRefError
	switch {
	case errors.As(err, &violationErr):
		return Rejected
	case errors.As(err, &refErr):
		return Rejected
	case errors.Is(err, verifier.ErrNoRulesDefined):
		return Rejected
	case errors.Is(err, engine.ErrCancelled):
		return Rejected
	default:
		return ConfigError
	}
}
