// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"encoding/hex"
	"errors"
)

const zeroHashString = "0000000000000000000000000000000000000000"

var (
	ErrInvalidHashEncoding = errors.New("hash string is not hex encoded")
	ErrInvalidHashLength   = errors.New("hash string is wrong length")
)

// Hash is a 20-byte Git object ID, represented internally in its hex form.
type Hash struct {
	hash string
}

func (h Hash) String() string {
	return h.hash
}

// IsZero returns true if the hash is the all-zeroes hash Git's
// reference-transaction hook uses to denote "no such commit" on ref
// creation (old == ZeroHash) or deletion (new == ZeroHash).
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) Equal(other Hash) bool {
	return h.hash == other.hash
}

// ZeroHash is the 40 "0" characters Git uses in hook input and as a
// sentinel for "object does not exist."
var ZeroHash = Hash{hash: zeroHashString}

// NewHash validates and wraps a hex-encoded object ID.
func NewHash(h string) (Hash, error) {
	if _, err := hex.DecodeString(h); err != nil {
		return ZeroHash, ErrInvalidHashEncoding
	}

	if len(h) != len(zeroHashString) {
		return ZeroHash, ErrInvalidHashLength
	}

	return Hash{hash: h}, nil
}
