package app

import (
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/fragnote/internal/changelog"
	"github.com/ariel-frischer/fragnote/internal/config"
	"github.com/ariel-frischer/fragnote/internal/fragment"
	"github.com/ariel-frischer/fragnote/internal/gitstage"
	"github.com/ariel-frischer/fragnote/internal/store"
)

const changelogSeed = "# Changelog\n\n" +
	config.DefaultMarker + "\n" +
	"\n## 0.9.0 (2025-12-01)\n\n- Old entry.\n"

func testApp(t *testing.T) (*App, billy.Filesystem) {
	t.Helper()
	cfg := &config.Config{
		ChangeFragmentsPath: "changelog.d",
		ChangelogPath:       "CHANGELOG.md",
		ChangelogMarker:     config.DefaultMarker,
		ChangelogOutputType: config.OutputMarkdown,
		FragmentTypes:       config.DefaultFragmentTypes(),
		Sections: []config.Section{
			{Path: "", Title: ""},
			{Path: "backend", Title: "Backend"},
		},
	}

	root := memfs.New()
	writeFile(t, root, "CHANGELOG.md", changelogSeed)

	a, err := New(cfg, root, gitstage.Open(t.TempDir()))
	require.NoError(t, err)
	return a, root
}

func writeFile(t *testing.T, fsys billy.Filesystem, path, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fsys, path, []byte(content), 0o644))
}

func TestComposeThenFindPending(t *testing.T) {
	a, _ := testApp(t)
	f := &fragment.Fragment{
		Type:         "feature",
		Issues:       map[string]string{"77": "https://example.com/77"},
		FeatureFlags: []string{"alpha"},
		Description:  "Added a thing.\n",
	}

	file, err := a.ComposeFragment(f)
	require.NoError(t, err)
	assert.Equal(t, store.PendingDir, file.Dir)

	found, err := a.store.FindPending()
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, file, found[0])

	data, err := a.store.Read(found[0])
	require.NoError(t, err)
	parsed, err := fragment.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, f.Type, parsed.Type)
	assert.Equal(t, f.Issues, parsed.Issues)
	assert.Equal(t, f.FeatureFlags, parsed.FeatureFlags)
	assert.Equal(t, f.Description, parsed.Description)
}

func TestComposeInvalidFragment(t *testing.T) {
	a, _ := testApp(t)

	_, err := a.ComposeFragment(&fragment.Fragment{Type: "nope", Description: "X.\n"})
	assert.True(t, fragment.IsInvalid(err))

	found, err := a.store.FindPending()
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestWriteFragmentTo(t *testing.T) {
	a, root := testApp(t)

	err := a.WriteFragmentTo([]byte("type: feature\ndescription: Pinned down.\n"), "notes/extra.yaml")
	require.NoError(t, err)

	data, err := util.ReadFile(root, "notes/extra.yaml")
	require.NoError(t, err)
	assert.Equal(t, "type: feature\ndescription: Pinned down.\n", string(data))

	// Explicit output paths bypass the pending area.
	found, err := a.store.FindPending()
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRenderPendingWritesNothing(t *testing.T) {
	a, root := testApp(t)
	writeFile(t, root, "changelog.d/next/0001-aaaaaaaa.yaml",
		"type: feature\ndescription: Added widgets.\n")

	section, n, err := a.RenderPending("1.0.0", "2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, section, "## 1.0.0 (2026-01-02)")
	assert.Contains(t, section, "- Added widgets.")

	data, err := util.ReadFile(root, "CHANGELOG.md")
	require.NoError(t, err)
	assert.Equal(t, changelogSeed, string(data))

	found, err := a.store.FindPending()
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCompileArchive(t *testing.T) {
	a, root := testApp(t)
	writeFile(t, root, "changelog.d/next/0001-aaaaaaaa.yaml",
		"type: feature\ndescription: Added widgets.\n")
	writeFile(t, root, "changelog.d/next/backend/0002-bbbbbbbb.yaml",
		"type: bugfix\nsection: backend\ndescription: Fixed the backend.\n")

	res, err := a.CompileFragments(CompileOptions{
		Version: semver.MustParse("1.0.0"),
		Date:    "2026-01-02",
		Author:  "Pat Example <pat@example.com>",
		Mode:    Archive,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Empty(t, res.Problems)
	assert.Len(t, res.Archived, 2)
	assert.NotEmpty(t, res.MetadataPath)

	data, err := util.ReadFile(root, "CHANGELOG.md")
	require.NoError(t, err)
	doc := string(data)
	markerAt := strings.Index(doc, config.DefaultMarker)
	newAt := strings.Index(doc, "## 1.0.0 (2026-01-02)")
	oldAt := strings.Index(doc, "## 0.9.0 (2025-12-01)")
	require.True(t, markerAt >= 0 && newAt >= 0 && oldAt >= 0)
	assert.Less(t, markerAt, newAt)
	assert.Less(t, newAt, oldAt)
	assert.Contains(t, doc, "- Added widgets.")
	assert.Contains(t, doc, "### Backend")
	assert.Contains(t, doc, "- Fixed the backend.")

	pending, err := a.store.FindPending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	archived, err := a.store.FindArchived(semver.MustParse("1.0.0"))
	require.NoError(t, err)
	assert.Len(t, archived, 2)

	metaRaw, err := util.ReadFile(root, "changelog.d/1.0.0/metadata.yaml")
	require.NoError(t, err)
	var meta store.Metadata
	require.NoError(t, yaml.Unmarshal(metaRaw, &meta))
	assert.Equal(t, store.Metadata{
		Date:    "2026-01-02",
		Version: "1.0.0",
		Author:  "Pat Example <pat@example.com>",
	}, meta)

	versions, err := a.Versions()
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "1.0.0", versions[0].String())
}

func TestCompileDelete(t *testing.T) {
	a, root := testApp(t)
	writeFile(t, root, "changelog.d/next/0001-aaaaaaaa.yaml",
		"type: feature\ndescription: Added widgets.\n")

	res, err := a.CompileFragments(CompileOptions{
		Version: semver.MustParse("1.1.0"),
		Date:    "2026-02-03",
		Mode:    Delete,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"next/0001-aaaaaaaa.yaml"}, res.Removed)
	assert.Empty(t, res.Problems)
	assert.Empty(t, res.Archived)

	pending, err := a.store.FindPending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	versions, err := a.Versions()
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestCompileKeep(t *testing.T) {
	a, root := testApp(t)
	writeFile(t, root, "changelog.d/next/0001-aaaaaaaa.yaml",
		"type: feature\ndescription: Added widgets.\n")

	res, err := a.CompileFragments(CompileOptions{
		Version: semver.MustParse("1.0.0"),
		Date:    "2026-01-02",
		Mode:    Keep,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	data, err := util.ReadFile(root, "CHANGELOG.md")
	require.NoError(t, err)
	assert.Contains(t, string(data), "## 1.0.0 (2026-01-02)")

	found, err := a.store.FindPending()
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCompileZeroFragments(t *testing.T) {
	a, root := testApp(t)

	res, err := a.CompileFragments(CompileOptions{
		Version: semver.MustParse("0.1.0"),
		Date:    "2026-01-02",
		Mode:    Archive,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, res.Archived)
	assert.Empty(t, res.MetadataPath)

	data, err := util.ReadFile(root, "CHANGELOG.md")
	require.NoError(t, err)
	assert.Contains(t, string(data), "## 0.1.0 (2026-01-02)")
	assert.Contains(t, string(data), "No significant changes.")

	// No archive directory appears for an empty release.
	versions, err := a.Versions()
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestCompileNamesEveryBadFragment(t *testing.T) {
	a, root := testApp(t)
	writeFile(t, root, "changelog.d/next/0001-bad.yaml",
		"type: nope\ndescription: Unknown type.\n")
	writeFile(t, root, "changelog.d/next/0002-empty.yaml",
		"# nothing here\n")
	writeFile(t, root, "changelog.d/next/0003-good.yaml",
		"type: feature\ndescription: Fine.\n")

	_, err := a.CompileFragments(CompileOptions{
		Version: semver.MustParse("1.0.0"),
		Date:    "2026-01-02",
		Mode:    Archive,
	})
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Fragments, 2)
	assert.Contains(t, err.Error(), "next/0001-bad.yaml")
	assert.Contains(t, err.Error(), "next/0002-empty.yaml")
	assert.NotContains(t, err.Error(), "0003-good.yaml")

	// The whole compile aborts: changelog untouched, fragments intact.
	data, err := util.ReadFile(root, "CHANGELOG.md")
	require.NoError(t, err)
	assert.Equal(t, changelogSeed, string(data))

	found, err := a.store.FindPending()
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestCompileMissingMarker(t *testing.T) {
	a, root := testApp(t)
	writeFile(t, root, "CHANGELOG.md", "# Changelog\n\nno marker in sight\n")
	writeFile(t, root, "changelog.d/next/0001-aaaaaaaa.yaml",
		"type: feature\ndescription: Added widgets.\n")

	_, err := a.CompileFragments(CompileOptions{
		Version: semver.MustParse("1.0.0"),
		Date:    "2026-01-02",
		Mode:    Archive,
	})
	var mnf *changelog.MarkerNotFoundError
	require.ErrorAs(t, err, &mnf)

	// Precondition failures leave the pending area alone.
	found, err := a.store.FindPending()
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
