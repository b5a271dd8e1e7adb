// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// generateSSHKeyPair shells out to ssh-keygen to produce a fresh ed25519
// keypair under dir, mirroring how internal/gitinterface's own fixtures
// shell out to git rather than embedding binary key material.
func generateSSHKeyPair(t *testing.T, dir, name string) (privPath string, pubBlob []byte) {
	t.Helper()

	privPath = filepath.Join(dir, name)
	cmd := exec.Command("ssh-keygen", "-t", "ed25519", "-N", "", "-f", privPath, "-q", "-C", name)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("ssh-keygen -t ed25519 failed: %v\n%s", err, out)
	}

	pubBlob, err := os.ReadFile(privPath + ".pub")
	if err != nil {
		t.Fatalf("unable to read generated public key: %v", err)
	}
	return privPath, pubBlob
}

// signDetached produces a "git" namespace SSH detached signature over data
// using the private key at privPath, the same mechanism git itself invokes
// when gpg.format=ssh.
func signDetached(t *testing.T, privPath string, data []byte) []byte {
	t.Helper()

	dataPath := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(dataPath, data, 0o600); err != nil {
		t.Fatalf("unable to write data to sign: %v", err)
	}

	cmd := exec.Command("ssh-keygen", "-Y", "sign", "-n", "git", "-f", privPath, dataPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("ssh-keygen -Y sign failed: %v\n%s", err, out)
	}

	signature, err := os.ReadFile(dataPath + ".sig")
	if err != nil {
		t.Fatalf("unable to read produced signature: %v", err)
	}
	return signature
}

// configureSSHSigning points the test repository's signing configuration at
// privPath so the next `git commit -S` signs with it.
func configureSSHSigning(t *testing.T, dir, privPath string) {
	t.Helper()

	for _, args := range [][]string{
		{"config", "gpg.format", "ssh"},
		{"config", "user.signingkey", privPath},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}
}

// commitSignedFile stages a file and creates a signed commit, returning its
// ID as a string (parsed by callers via gitinterface.NewHash).
func commitSignedFile(t *testing.T, dir, path, contents, message string) string {
	t.Helper()

	fullPath := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatalf("unable to create directories for %q: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("unable to write %q: %v", path, err)
	}

	for _, args := range [][]string{
		{"add", path},
		{"commit", "-q", "-S", "-m", message},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git rev-parse HEAD failed: %v\n%s", err, out)
	}
	return string(trimNewline(out))
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
