// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/hiddeco/sshsig"
	"golang.org/x/crypto/ssh"
)

const (
	KeyTypeGPG = "gpg"
	KeyTypeSSH = "ssh"

	pgpArmorHeader = "-----BEGIN PGP PUBLIC KEY BLOCK-----"
)

var (
	ErrUnknownKeyType  = errors.New("key blob is neither an armored PGP public key nor an SSH public key")
	ErrInvalidKeyBytes = errors.New("unable to parse key material")
)

// Key is an authorized verification key loaded from a commit's key
// directory. Its concrete type (PGP or SSH) is detected from the blob's
// header, never declared out of band.
type Key struct {
	Type        string
	Fingerprint string

	gpgEntity *openpgp.Entity
	sshPublic ssh.PublicKey
}

// ParseKey detects the key type from the blob's header and parses it.
func ParseKey(blob []byte) (*Key, error) {
	trimmed := bytes.TrimSpace(blob)

	if bytes.HasPrefix(trimmed, []byte(pgpArmorHeader)) {
		keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(blob))
		if err != nil {
			return nil, errors.Join(ErrInvalidKeyBytes, err)
		}
		if len(keyring) == 0 {
			return nil, ErrInvalidKeyBytes
		}

		entity := keyring[0]
		return &Key{
			Type:        KeyTypeGPG,
			Fingerprint: hex.EncodeToString(entity.PrimaryKey.Fingerprint[:]),
			gpgEntity:   entity,
		}, nil
	}

	pubKey, _, _, _, err := ssh.ParseAuthorizedKey(blob)
	if err == nil {
		sum := sha256.Sum256(pubKey.Marshal())
		return &Key{
			Type:        KeyTypeSSH,
			Fingerprint: hex.EncodeToString(sum[:]),
			sshPublic:   pubKey,
		}, nil
	}

	return nil, ErrUnknownKeyType
}

// sigNamespace is the SSH signature namespace Git uses for commit and tag
// signing ("git") per gitformat-signature(5).
const sigNamespace = "git"

var ErrSignatureVerificationFailed = errors.New("signature verification failed")

// Verify checks signature against data using the key. The data passed in
// must be the exact bytes that were signed: for a commit, that's the commit
// object with its signature header stripped.
func (k *Key) Verify(data, signature []byte) error {
	switch k.Type {
	case KeyTypeGPG:
		_, err := openpgp.CheckArmoredDetachedSignature(openpgp.EntityList{k.gpgEntity}, bytes.NewReader(data), bytes.NewReader(signature), nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSignatureVerificationFailed, err)
		}
		return nil

	case KeyTypeSSH:
		sig, err := sshsig.Unarmor(signature)
		if err != nil {
			return fmt.Errorf("%w: unable to parse ssh signature: %w", ErrSignatureVerificationFailed, err)
		}

		// ssh-keygen signs with SHA-512 regardless of the underlying key
		// algorithm.
		if err := sshsig.Verify(bytes.NewReader(data), sig, k.sshPublic, sshsig.HashSHA512, sigNamespace); err != nil {
			return fmt.Errorf("%w: %w", ErrSignatureVerificationFailed, err)
		}
		return nil

	default:
		return ErrUnknownKeyType
	}
}

// KeyName returns the final path component of a key blob's path. The file
// extension is kept.
func KeyName(path string) string {
	name := path
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}
