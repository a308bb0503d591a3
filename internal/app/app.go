// Package app orchestrates the fragnote workflows over the fragment
// store, renderer, changelog merger and git staging.
//
// The two real workflows are Compose (write one new fragment into the
// pending area) and Compile (render every pending fragment into a
// changelog section, merge it into the changelog, then archive or
// delete the consumed fragments). Everything else is a thin listing
// helper for the CLI. Methods return structured results and perform no
// presentation.
package app

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/fragnote/internal/changelog"
	"github.com/ariel-frischer/fragnote/internal/config"
	"github.com/ariel-frischer/fragnote/internal/fragment"
	"github.com/ariel-frischer/fragnote/internal/gitstage"
	"github.com/ariel-frischer/fragnote/internal/render"
	"github.com/ariel-frischer/fragnote/internal/store"
	"github.com/ariel-frischer/fragnote/internal/version"
)

// CleanupMode selects what happens to pending fragments after their
// section has been merged into the changelog.
type CleanupMode int

const (
	// Archive moves compiled fragments into a per-version directory and
	// records release metadata there.
	Archive CleanupMode = iota
	// Delete removes compiled fragments outright.
	Delete
	// Keep leaves the pending area untouched.
	Keep
)

// CompileOptions carries the resolved inputs of one compile run.
type CompileOptions struct {
	Version *semver.Version
	Date    string // ISO 8601 release date for the heading
	Author  string // recorded in archive metadata
	Mode    CleanupMode
}

// CompileResult reports what a compile run did.
type CompileResult struct {
	Count         int    // pending fragments compiled
	Section       string // rendered changelog section
	ChangelogPath string

	Archived     []store.Move
	Removed      []string
	Problems     []store.Problem
	MetadataPath string   // set when archive metadata was written
	Staged       []string // repo-relative paths staged in git
}

// FragmentError is a per-file failure collected during compilation.
type FragmentError struct {
	Path string
	Err  error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}

// CompileError aggregates every fragment that failed to parse, validate
// or render. One bad fragment aborts the whole compile; it must never
// be silently skipped from a release changelog.
type CompileError struct {
	Fragments []*FragmentError
}

func (e *CompileError) Error() string {
	if len(e.Fragments) == 1 {
		return fmt.Sprintf("1 fragment failed to compile: %s", e.Fragments[0].Error())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d fragments failed to compile:", len(e.Fragments))
	for _, fe := range e.Fragments {
		sb.WriteString("\n  " + fe.Error())
	}
	return sb.String()
}

// App wires the fragment store, renderer and merger together under one
// configuration. It holds the project filesystem for the duration of a
// single command invocation and caches nothing across invocations.
type App struct {
	cfg    *config.Config
	root   billy.Filesystem
	store  *store.Store
	stager *gitstage.Stager
}

// New builds an App over root, the project tree holding the fragment
// area and the changelog.
func New(cfg *config.Config, root billy.Filesystem, stager *gitstage.Stager) (*App, error) {
	fragFS, err := root.Chroot(filepath.ToSlash(cfg.ChangeFragmentsPath))
	if err != nil {
		return nil, fmt.Errorf("opening fragment area %s: %w", cfg.ChangeFragmentsPath, err)
	}
	return &App{cfg: cfg, root: root, store: store.New(fragFS), stager: stager}, nil
}

// GuessVersion attempts to guess the next release version from project
// metadata under the project root.
func (a *App) GuessVersion() (version.Guess, bool) {
	return version.Detect(a.root)
}

// GitUser returns the configured git author identity, or an empty
// string when no repository or identity is available.
func (a *App) GitUser() string {
	return a.stager.User()
}

// FragmentTypes lists the configured fragment types in declared order.
func (a *App) FragmentTypes() []config.FragmentType {
	return a.cfg.FragmentTypes
}

// Sections lists the configured sections, default section first.
func (a *App) Sections() []config.Section {
	return a.cfg.Sections
}

// Versions lists archived release versions, newest first.
func (a *App) Versions() ([]*semver.Version, error) {
	return a.store.Versions()
}

// ComposeFragment validates f, serializes it canonically and writes it
// into the pending area under a generated unique name.
func (a *App) ComposeFragment(f *fragment.Fragment) (store.File, error) {
	if err := fragment.Validate(f, a.cfg); err != nil {
		return store.File{}, err
	}
	data, err := fragment.Encode(f)
	if err != nil {
		return store.File{}, err
	}
	return a.WriteFragment(data)
}

// WriteFragment validates text as a fragment document and writes it
// verbatim into the pending area. Editor-composed fragments take this
// path so hand-written formatting survives.
func (a *App) WriteFragment(text []byte) (store.File, error) {
	if err := a.validateText(text); err != nil {
		return store.File{}, err
	}
	file, err := a.store.CreateFragment(text)
	if err != nil {
		return store.File{}, err
	}
	a.stager.Stage(a.FragmentPath(file))
	return file, nil
}

// WriteFragmentTo validates text and writes it to an explicit
// project-relative path instead of the pending area.
func (a *App) WriteFragmentTo(text []byte, outputPath string) error {
	if err := a.validateText(text); err != nil {
		return err
	}

	rel := filepath.ToSlash(outputPath)
	if dir := path.Dir(rel); dir != "." {
		if err := a.root.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := util.WriteFile(a.root, rel, text, 0o644); err != nil {
		return fmt.Errorf("writing fragment %s: %w", outputPath, err)
	}
	a.stager.Stage(a.realPath(outputPath))
	return nil
}

// ValidateText parses and validates a fragment document without writing
// it anywhere. Safe to call repeatedly; the editor loop leans on that.
func (a *App) ValidateText(text []byte) error {
	return a.validateText(text)
}

func (a *App) validateText(text []byte) error {
	f, err := fragment.Parse(text)
	if err != nil {
		return err
	}
	return fragment.Validate(f, a.cfg)
}

// RenderPending validates every pending fragment and renders the
// changelog section for them without writing anything. Previews and
// draft compiles use this.
func (a *App) RenderPending(version, date string) (string, int, error) {
	_, entries, err := a.loadPending()
	if err != nil {
		return "", 0, err
	}
	section, err := render.SectionString(entries, version, date, a.cfg)
	if err != nil {
		return "", 0, err
	}
	return section, len(entries), nil
}

// CompileFragments renders every pending fragment into one section,
// merges it into the changelog and then applies the cleanup mode. The
// merge happens before any cleanup so a failure never leaves fragments
// consumed without a changelog entry.
func (a *App) CompileFragments(opts CompileOptions) (*CompileResult, error) {
	files, entries, err := a.loadPending()
	if err != nil {
		return nil, err
	}

	section, err := render.SectionString(entries, opts.Version.String(), opts.Date, a.cfg)
	if err != nil {
		return nil, err
	}

	if err := changelog.Merge(a.root, filepath.ToSlash(a.cfg.ChangelogPath), a.cfg.ChangelogMarker, section); err != nil {
		return nil, err
	}

	result := &CompileResult{
		Count:         len(entries),
		Section:       section,
		ChangelogPath: a.cfg.ChangelogPath,
	}
	result.Staged = append(result.Staged, a.stager.Stage(a.realPath(a.cfg.ChangelogPath))...)

	if len(files) == 0 || opts.Mode == Keep {
		return result, nil
	}

	switch opts.Mode {
	case Archive:
		archived, err := a.store.Archive(files, store.Metadata{
			Date:    opts.Date,
			Version: opts.Version.String(),
			Author:  opts.Author,
		})
		if err != nil {
			return nil, err
		}
		result.Archived = archived.Moved
		result.Problems = archived.Problems

		stage := make([]string, 0, 2*len(archived.Moved)+1)
		for _, m := range archived.Moved {
			stage = append(stage, a.fragmentRealPath(m.From), a.fragmentRealPath(m.To))
		}
		if archived.MetadataPath != "" {
			result.MetadataPath = a.fragmentRealPath(archived.MetadataPath)
			stage = append(stage, result.MetadataPath)
		}
		result.Staged = append(result.Staged, a.stager.Stage(stage...)...)

	case Delete:
		removed, err := a.store.RemovePending()
		if err != nil {
			return nil, err
		}
		result.Removed = removed.Removed
		result.Problems = removed.Problems

		stage := make([]string, 0, len(removed.Removed))
		for _, p := range removed.Removed {
			stage = append(stage, a.fragmentRealPath(p))
		}
		result.Staged = append(result.Staged, a.stager.Stage(stage...)...)
	}

	return result, nil
}

// FragmentPath returns the project-level path of a stored fragment,
// suitable for display and git staging.
func (a *App) FragmentPath(f store.File) string {
	return a.fragmentRealPath(f.Path())
}

// loadConcurrency bounds how many fragment files load at once.
const loadConcurrency = 8

// loadPending reads, parses and validates every pending fragment,
// test-rendering each one so any failure is reported against its file.
// Fragments load concurrently into per-index slots, keeping the sorted
// file order. All failures are collected into a single CompileError.
func (a *App) loadPending() ([]store.File, []render.Entry, error) {
	files, err := a.store.FindPending()
	if err != nil {
		return nil, nil, err
	}

	entries := make([]render.Entry, len(files))
	failures := make([]*FragmentError, len(files))

	g := new(errgroup.Group)
	g.SetLimit(loadConcurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			entry, err := a.loadEntry(file)
			if err != nil {
				failures[i] = &FragmentError{Path: file.Path(), Err: err}
				return nil
			}
			entries[i] = entry
			return nil
		})
	}
	// Tasks record failures in their slot instead of returning them.
	_ = g.Wait()

	var problems []*FragmentError
	for _, f := range failures {
		if f != nil {
			problems = append(problems, f)
		}
	}
	if len(problems) > 0 {
		return nil, nil, &CompileError{Fragments: problems}
	}
	return files, entries, nil
}

func (a *App) loadEntry(file store.File) (render.Entry, error) {
	data, err := a.store.Read(file)
	if err != nil {
		return render.Entry{}, err
	}
	f, err := fragment.Parse(data)
	if err != nil {
		return render.Entry{}, err
	}
	if err := fragment.Validate(f, a.cfg); err != nil {
		return render.Entry{}, err
	}

	ft, _ := a.cfg.FragmentType(f.Type)
	if _, err := render.FragmentText(f, ft.ShowContent, a.cfg.ChangelogOutputType); err != nil {
		return render.Entry{}, err
	}
	return render.Entry{Filename: file.Path(), Fragment: f}, nil
}

func (a *App) fragmentRealPath(rel string) string {
	return filepath.Join(a.store.Root(), filepath.FromSlash(rel))
}

func (a *App) realPath(rel string) string {
	return filepath.Join(a.root.Root(), filepath.FromSlash(rel))
}
