// Package store manages change fragments on disk: the pending area
// holding fragments for the next release, and one archive directory per
// released version.
//
// The store operates on a billy.Filesystem rooted at the project's
// change fragments path, so production code runs against the real tree
// (osfs) while tests run in memory (memfs).
package store

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

const (
	// PendingDir is the directory holding fragments for the next release.
	PendingDir = "next"

	// MetadataFilename is reserved inside archive directories for the
	// release metadata and never treated as a fragment.
	MetadataFilename = "metadata.yaml"

	fragmentExt = ".yaml"
)

// File identifies a fragment file by the store-relative directory that
// holds it and its filename.
type File struct {
	Dir  string
	Name string
}

// Path returns the store-relative path of the file.
func (f File) Path() string {
	return path.Join(f.Dir, f.Name)
}

// Problem records a file operation that failed during a best-effort
// batch, such as archiving or removal.
type Problem struct {
	Path string
	Err  error
}

// Move records one successful fragment relocation.
type Move struct {
	From string
	To   string
}

// Metadata describes one archived release. It is written to
// MetadataFilename inside the version's archive directory.
type Metadata struct {
	Date    string `yaml:"date"`
	Version string `yaml:"version"`
	Author  string `yaml:"author"`
}

// ArchiveResult reports the outcome of archiving one release's
// fragments.
type ArchiveResult struct {
	Moved        []Move
	Problems     []Problem
	MetadataPath string // empty when metadata was not written
}

// RemoveResult reports the outcome of clearing the pending area.
type RemoveResult struct {
	Removed  []string
	Problems []Problem
}

// Store reads and writes fragments under a single filesystem root.
type Store struct {
	fs billy.Filesystem

	// now and token are swapped out by tests for deterministic
	// fragment filenames.
	now   func() time.Time
	token func() (string, error)
}

// New returns a Store over fsys, which must be rooted at the project's
// change fragments path.
func New(fsys billy.Filesystem) *Store {
	return &Store{fs: fsys, now: time.Now, token: randomToken}
}

// Root returns the path the store is rooted at, as reported by the
// underlying filesystem. Callers use it to derive real paths for git
// staging.
func (s *Store) Root() string {
	return s.fs.Root()
}

// FindPending lists fragment files awaiting compilation. The pending
// area is walked recursively so fragments sorted into subdirectories
// are found too; the reserved metadata filename and non-YAML files are
// skipped. Results are sorted by path. A missing pending area is an
// empty result, not an error.
func (s *Store) FindPending() ([]File, error) {
	return s.findFragments(PendingDir)
}

// FindArchived lists the fragment files archived under version.
func (s *Store) FindArchived(version *semver.Version) ([]File, error) {
	return s.findFragments(version.String())
}

func (s *Store) findFragments(root string) ([]File, error) {
	var found []File
	err := util.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		if name == MetadataFilename || !strings.HasSuffix(name, fragmentExt) {
			return nil
		}
		found = append(found, File{Dir: path.Dir(p), Name: name})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing fragments under %s: %w", root, err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path() < found[j].Path() })
	return found, nil
}

// Read returns the content of a fragment file.
func (s *Store) Read(f File) ([]byte, error) {
	data, err := util.ReadFile(s.fs, f.Path())
	if err != nil {
		return nil, fmt.Errorf("reading fragment %s: %w", f.Path(), err)
	}
	return data, nil
}

// CreateFragment writes content as a new pending fragment and returns
// its location. Filenames combine a millisecond timestamp with a random
// URL-safe token; an existing file of the same name is never
// overwritten, a collision fails the operation outright.
func (s *Store) CreateFragment(content []byte) (File, error) {
	token, err := s.token()
	if err != nil {
		return File{}, fmt.Errorf("generating fragment token: %w", err)
	}

	f := File{
		Dir:  PendingDir,
		Name: fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), token, fragmentExt),
	}

	if _, err := s.fs.Stat(f.Path()); err == nil {
		return File{}, fmt.Errorf("fragment %s: %w", f.Path(), os.ErrExist)
	} else if !os.IsNotExist(err) {
		return File{}, fmt.Errorf("checking fragment %s: %w", f.Path(), err)
	}

	if err := s.fs.MkdirAll(PendingDir, 0o755); err != nil {
		return File{}, fmt.Errorf("creating pending directory: %w", err)
	}
	if err := util.WriteFile(s.fs, f.Path(), content, 0o644); err != nil {
		return File{}, fmt.Errorf("writing fragment %s: %w", f.Path(), err)
	}
	return f, nil
}

// Archive moves fragments into the archive directory for the release
// described by meta. Moves are best effort: each failure is collected
// per file and the remaining fragments are still moved. The release
// metadata is only written when every move succeeded, so a partial
// archive is never presented as a completed release.
func (s *Store) Archive(fragments []File, meta Metadata) (*ArchiveResult, error) {
	dir := meta.Version
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory %s: %w", dir, err)
	}

	result := &ArchiveResult{}
	for _, f := range fragments {
		dest := path.Join(dir, f.Name)
		if err := s.fs.Rename(f.Path(), dest); err != nil {
			result.Problems = append(result.Problems, Problem{Path: f.Path(), Err: err})
			continue
		}
		result.Moved = append(result.Moved, Move{From: f.Path(), To: dest})
	}

	if len(result.Problems) > 0 {
		return result, nil
	}

	data, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encoding release metadata: %w", err)
	}
	metaPath := path.Join(dir, MetadataFilename)
	if err := util.WriteFile(s.fs, metaPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing release metadata: %w", err)
	}
	result.MetadataPath = metaPath
	return result, nil
}

// RemovePending deletes every pending fragment and prunes
// subdirectories left empty, for deployments that discard fragments
// instead of archiving them. Paths that cannot be removed are collected
// rather than failing the batch.
func (s *Store) RemovePending() (*RemoveResult, error) {
	found, err := s.FindPending()
	if err != nil {
		return nil, err
	}

	result := &RemoveResult{}
	for _, f := range found {
		if err := s.fs.Remove(f.Path()); err != nil {
			result.Problems = append(result.Problems, Problem{Path: f.Path(), Err: err})
			continue
		}
		result.Removed = append(result.Removed, f.Path())
	}

	s.pruneEmptyDirs(PendingDir)
	return result, nil
}

// pruneEmptyDirs removes now-empty subdirectories under root, deepest
// first. The root itself is kept. Removal is best effort.
func (s *Store) pruneEmptyDirs(root string) {
	var dirs []string
	_ = util.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() && p != root {
			dirs = append(dirs, p)
		}
		return nil
	})

	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		entries, err := s.fs.ReadDir(dir)
		if err == nil && len(entries) == 0 {
			_ = s.fs.Remove(dir)
		}
	}
}

// Versions lists the archived release versions, newest first, with
// pre-releases ordered below their final release. Every archive
// directory name must parse as a semantic version; one that does not is
// reported as an error rather than skipped.
func (s *Store) Versions() ([]*semver.Version, error) {
	entries, err := s.fs.ReadDir(".")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing archive: %w", err)
	}

	var versions []*semver.Version
	for _, e := range entries {
		if !e.IsDir() || e.Name() == PendingDir {
			continue
		}
		v, err := semver.StrictNewVersion(e.Name())
		if err != nil {
			return nil, fmt.Errorf("archive directory %q is not a version: %w", e.Name(), err)
		}
		versions = append(versions, v)
	}

	sort.Sort(sort.Reverse(semver.Collection(versions)))
	return versions, nil
}

// randomToken returns an 8 character URL-safe token built from 6
// random bytes.
func randomToken() (string, error) {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}
