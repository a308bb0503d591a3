// Package gitstage performs best-effort git staging for files the CLI
// writes or moves. It uses go-git with DetectDotGit to locate the
// enclosing repository; when none exists every operation is a no-op,
// since version control is a convenience here, not a requirement.
package gitstage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// Stager stages paths in the repository enclosing a directory.
type Stager struct {
	repo *git.Repository
	root string
}

// Open locates the repository enclosing dir, traversing up the
// directory tree the way the git CLI does. If dir is empty, the current
// working directory is used. The returned Stager is usable even when no
// repository is found; its methods then do nothing.
func Open(dir string) *Stager {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return &Stager{}
		}
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return &Stager{}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return &Stager{}
	}
	return &Stager{repo: repo, root: worktree.Filesystem.Root()}
}

// Available reports whether an enclosing repository was found.
func (s *Stager) Available() bool {
	return s.repo != nil
}

// Stage adds each path to the index and returns the repo-relative paths
// that were staged. Paths may be absolute or relative to the working
// directory; a path for a file that no longer exists stages its
// deletion. Failures are skipped, staging is advisory.
func (s *Stager) Stage(paths ...string) []string {
	if s.repo == nil {
		return nil
	}
	worktree, err := s.repo.Worktree()
	if err != nil {
		return nil
	}

	var staged []string
	for _, path := range paths {
		rel, ok := s.relative(path)
		if !ok {
			continue
		}
		if _, err := worktree.Add(rel); err != nil {
			continue
		}
		staged = append(staged, rel)
	}
	return staged
}

// relative resolves path against the repository root. Paths outside the
// worktree cannot be staged.
func (s *Stager) relative(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// User returns the configured git author as "name <email>", matching
// the forms git itself would use for a commit. Empty when neither
// user.name nor user.email is set or there is no repository.
func (s *Stager) User() string {
	if s.repo == nil {
		return ""
	}
	cfg, err := s.repo.ConfigScoped(config.SystemScope)
	if err != nil {
		return ""
	}

	name := strings.TrimSpace(cfg.User.Name)
	email := strings.TrimSpace(cfg.User.Email)
	switch {
	case name == "" && email == "":
		return ""
	case email == "":
		return name
	case name == "":
		return "<" + email + ">"
	}
	return name + " <" + email + ">"
}
