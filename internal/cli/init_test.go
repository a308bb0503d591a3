package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/fragnote/internal/config"
)

// setupEmptyDir makes an empty temp directory the working directory.
func setupEmptyDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	return tmpDir
}

func TestInitCmdRegistration(t *testing.T) {
	assert.NotNil(t, getCommand("init"), "init command should be registered")
}

func TestInitScaffoldsProject(t *testing.T) {
	setupEmptyDir(t)

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runInit(cmd, nil))

	out := stdout.String()
	assert.Contains(t, out, "Config: created at fragnote.yaml")
	assert.Contains(t, out, "Fragments: "+filepath.Join("changelog.d", "next")+"/ ready")
	assert.Contains(t, out, "Changelog: created at CHANGELOG.md")

	cfg, err := config.Load("fragnote.yaml")
	require.NoError(t, err, "the written template must load cleanly")
	assert.Equal(t, "changelog.d", cfg.ChangeFragmentsPath)
	assert.Equal(t, "CHANGELOG.md", cfg.ChangelogPath)

	info, err := os.Stat(filepath.Join("changelog.d", "next"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	changelog, err := os.ReadFile("CHANGELOG.md")
	require.NoError(t, err)
	assert.Contains(t, string(changelog), "# Changelog")
	assert.Contains(t, string(changelog), config.DefaultMarker)
}

func TestInitIsIdempotent(t *testing.T) {
	setupEmptyDir(t)

	cmd, _, _ := newTestCmd()
	require.NoError(t, runInit(cmd, nil))

	before, err := os.ReadFile("CHANGELOG.md")
	require.NoError(t, err)

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runInit(cmd, nil))

	out := stdout.String()
	assert.Contains(t, out, "Config: found at fragnote.yaml")
	assert.Contains(t, out, "Changelog: found at CHANGELOG.md")

	after, err := os.ReadFile("CHANGELOG.md")
	require.NoError(t, err)
	assert.Equal(t, before, after, "a second init must not rewrite existing files")
}

func TestInitWarnsAboutMissingMarker(t *testing.T) {
	setupEmptyDir(t)
	require.NoError(t, os.WriteFile("CHANGELOG.md", []byte("# Changelog\n\n## 0.9.0\n"), 0o644))

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runInit(cmd, nil))

	out := stdout.String()
	assert.Contains(t, out, "no insertion marker")
	assert.Contains(t, out, config.DefaultMarker, "the warning must show the marker line to add")

	changelog, err := os.ReadFile("CHANGELOG.md")
	require.NoError(t, err)
	assert.Equal(t, "# Changelog\n\n## 0.9.0\n", string(changelog), "an existing changelog is never rewritten")
}

func TestInitKeepsExistingConfig(t *testing.T) {
	setupEmptyDir(t)
	custom := `change_fragments_path: notes
changelog_path: NEWS.md
`
	require.NoError(t, os.WriteFile("fragnote.yaml", []byte(custom), 0o644))

	cmd, stdout, _ := newTestCmd()
	require.NoError(t, runInit(cmd, nil))

	out := stdout.String()
	assert.Contains(t, out, "Config: found at fragnote.yaml")
	assert.Contains(t, out, "Fragments: "+filepath.Join("notes", "next")+"/ ready")
	assert.Contains(t, out, "Changelog: created at NEWS.md")

	data, err := os.ReadFile("fragnote.yaml")
	require.NoError(t, err)
	assert.Equal(t, custom, string(data), "an existing config is never rewritten")
}

func TestInitBrokenConfig(t *testing.T) {
	setupEmptyDir(t)
	require.NoError(t, os.WriteFile("fragnote.yaml", []byte("changelog_path: [\n"), 0o644))

	cmd, _, _ := newTestCmd()
	err := runInit(cmd, nil)
	require.Error(t, err, "a broken config must fail init instead of being overwritten")
}
