// SPDX-License-Identifier: Apache-2.0

// Package project manages the durable, per-repository state spec.md §6
// describes: the persisted bootstrap commit the local user has chosen to
// trust, and the bootstrap-scoped validation cache built on top of it.
// Everything lives under <repo>/.git/bark/, mirroring how gittuf keeps its
// own namespace under <repo>/.git/gittuf.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barkvcs/bark/internal/cache"
	"github.com/barkvcs/bark/internal/gitinterface"
)

const (
	// DirName is the root of bark's persisted state, relative to GIT_DIR.
	DirName = "bark"

	// BootstrapFileName holds the 40-hex bootstrap commit the local user
	// has chosen to trust for the admin branch, refs/heads/bark_rules.
	BootstrapFileName = "bootstrap"

	// CacheDirName holds one bbolt file per bootstrap commit, named
	// "<bootstrap>.db", per spec.md §6.
	CacheDirName = "cache"

	// EnvDirName is an opaque tree reserved for installed rule modules;
	// the core only needs it to exist, never inspects its contents.
	EnvDirName = "env"
)

// Project wraps a Repository with access to bark's persisted state
// directory.
type Project struct {
	Repo *gitinterface.Repository
	dir  string
}

// Open loads the repository at path and resolves its bark state directory,
// creating it (and env/) if this is the first time bark has touched the
// repository.
func Open(path string) (*Project, error) {
	repo, err := gitinterface.LoadRepository(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open repository: %w", err)
	}

	dir := filepath.Join(repo.GetGitDir(), DirName)
	if err := os.MkdirAll(filepath.Join(dir, EnvDirName), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create bark state directory '%s': %w", dir, err)
	}

	return &Project{Repo: repo, dir: dir}, nil
}

// Dir returns <repo>/.git/bark.
func (p *Project) Dir() string {
	return p.dir
}

// CacheDir returns <repo>/.git/bark/cache, the directory cache.Open expects.
func (p *Project) CacheDir() string {
	return filepath.Join(p.dir, CacheDirName)
}

// bootstrapPath returns <repo>/.git/bark/bootstrap.
func (p *Project) bootstrapPath() string {
	return filepath.Join(p.dir, BootstrapFileName)
}

// Bootstrap reads the persisted admin-branch bootstrap commit. A project
// that has never had `trust set-bootstrap` run against it has no bootstrap
// file; callers must treat that as a configuration error, not as "no
// rules," since the admin branch itself cannot be walked without one.
func (p *Project) Bootstrap() (gitinterface.Hash, error) {
	contents, err := os.ReadFile(p.bootstrapPath())
	if err != nil {
		if os.IsNotExist(err) {
			return gitinterface.Hash{}, fmt.Errorf("no bootstrap commit is set for this repository; run 'bark trust set-bootstrap'")
		}
		return gitinterface.Hash{}, fmt.Errorf("unable to read bootstrap file: %w", err)
	}

	hash, err := gitinterface.NewHash(strings.TrimSpace(string(contents)))
	if err != nil {
		return gitinterface.Hash{}, fmt.Errorf("bootstrap file contains an invalid commit ID: %w", err)
	}
	return hash, nil
}

// SetBootstrap persists bootstrap as the trusted root of the admin branch.
// It is written atomically (write to a temp file, then rename) so a crash
// mid-write can never leave a half-written bootstrap file behind.
func (p *Project) SetBootstrap(bootstrap gitinterface.Hash) error {
	tmp, err := os.CreateTemp(p.dir, BootstrapFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary bootstrap file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.WriteString(bootstrap.String() + "\n"); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("unable to write bootstrap file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to close temporary bootstrap file: %w", err)
	}

	if err := os.Rename(tmp.Name(), p.bootstrapPath()); err != nil {
		return fmt.Errorf("unable to install bootstrap file: %w", err)
	}
	return nil
}

// OpenCache opens the bbolt-backed validation cache for bootstrap.
func (p *Project) OpenCache(bootstrap gitinterface.Hash) (*cache.Cache, error) {
	return cache.Open(p.CacheDir(), bootstrap)
}
