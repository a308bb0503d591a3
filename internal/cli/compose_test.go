package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/fragnote/internal/config"
	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
	"github.com/ariel-frischer/fragnote/internal/fragment"
)

// setupProject builds a minimal fragnote project in a temp directory
// and makes it the working directory for the test.
func setupProject(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	configYAML := `change_fragments_path: changelog.d
changelog_path: CHANGELOG.md
sections:
  backend: Backend
`
	require.NoError(t, os.WriteFile("fragnote.yaml", []byte(configYAML), 0o644))

	seed := "# Changelog\n\n" + config.DefaultMarker + "\n"
	require.NoError(t, os.WriteFile("CHANGELOG.md", []byte(seed), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join("changelog.d", "next"), 0o755))
	return tmpDir
}

// newTestCmd builds a throwaway command with captured output streams.
func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

// resetComposeFlags restores compose flag state after a test mutates it.
func resetComposeFlags(t *testing.T) {
	t.Helper()
	oldOutput, oldType, oldSection := composeOutput, composeType, composeSection
	oldIssues, oldFlags := composeIssues, composeFlags
	oldDescription, oldEdit := composeDescription, composeEdit
	t.Cleanup(func() {
		composeOutput, composeType, composeSection = oldOutput, oldType, oldSection
		composeIssues, composeFlags = oldIssues, oldFlags
		composeDescription, composeEdit = oldDescription, oldEdit
	})
}

func getCommand(use string) *cobra.Command {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Use == use {
			return cmd
		}
	}
	return nil
}

func TestComposeCmdRegistration(t *testing.T) {
	assert.NotNil(t, getCommand("compose"), "compose command should be registered")
}

func TestComposeCmdFlags(t *testing.T) {
	tests := map[string]struct {
		flagName  string
		shorthand string
		wantType  string
	}{
		"output flag":       {flagName: "output", shorthand: "o", wantType: "string"},
		"type flag":         {flagName: "type", shorthand: "t", wantType: "string"},
		"section flag":      {flagName: "section", shorthand: "s", wantType: "string"},
		"issue flag":        {flagName: "issue", shorthand: "i", wantType: "stringArray"},
		"feature-flag flag": {flagName: "feature-flag", shorthand: "f", wantType: "stringArray"},
		"description flag":  {flagName: "description", shorthand: "d", wantType: "string"},
		"edit flag":         {flagName: "edit", shorthand: "", wantType: "bool"},
	}

	cmd := getCommand("compose")
	require.NotNil(t, cmd, "compose command must exist")

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.flagName)
			require.NotNil(t, f, "flag %s should exist", tt.flagName)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.wantType, f.Value.Type())
		})
	}
}

func TestComposeWritesFragment(t *testing.T) {
	setupProject(t)
	resetComposeFlags(t)
	composeType = "feature"
	composeSection = "backend"
	composeIssues = []string{"12:https://example.com/issues/12", "77"}
	composeFlags = []string{"alpha"}
	composeDescription = "Added a thing."

	cmd, _, stderr := newTestCmd()
	require.NoError(t, runCompose(cmd, nil))
	assert.Contains(t, stderr.String(), "Wrote fragment")

	entries, err := os.ReadDir(filepath.Join("changelog.d", "next"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join("changelog.d", "next", entries[0].Name()))
	require.NoError(t, err)
	frag, err := fragment.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "feature", frag.Type)
	assert.Equal(t, "backend", frag.Section)
	assert.Equal(t, map[string]string{
		"12": "https://example.com/issues/12",
		"77": "",
	}, frag.Issues)
	assert.Equal(t, []string{"alpha"}, frag.FeatureFlags)
	assert.Equal(t, "Added a thing.", frag.Description)
}

func TestComposeUnknownType(t *testing.T) {
	setupProject(t)
	resetComposeFlags(t)
	composeType = "nope"

	cmd, _, _ := newTestCmd()
	err := runCompose(cmd, nil)
	require.Error(t, err)

	cliErr := apperrors.AsCLIError(err)
	require.NotNil(t, cliErr, "unknown type should be a structured error")
	assert.Equal(t, apperrors.Argument, cliErr.Category)
	assert.Contains(t, cliErr.Message, "nope")

	entries, err := os.ReadDir(filepath.Join("changelog.d", "next"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no fragment should be written")
}

func TestComposeUnknownSection(t *testing.T) {
	setupProject(t)
	resetComposeFlags(t)
	composeType = "feature"
	composeSection = "frontend"

	cmd, _, _ := newTestCmd()
	err := runCompose(cmd, nil)
	require.Error(t, err)

	cliErr := apperrors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, apperrors.Argument, cliErr.Category)
	assert.Contains(t, cliErr.Message, "frontend")
}

func TestComposeOutputPath(t *testing.T) {
	setupProject(t)
	resetComposeFlags(t)
	composeOutput = filepath.Join("notes", "pending.yaml")
	composeType = "bugfix"
	composeDescription = "Fixed a thing."

	cmd, _, stderr := newTestCmd()
	require.NoError(t, runCompose(cmd, nil))
	assert.Contains(t, stderr.String(), "Wrote fragment")

	data, err := os.ReadFile(composeOutput)
	require.NoError(t, err)
	frag, err := fragment.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "bugfix", frag.Type)

	entries, err := os.ReadDir(filepath.Join("changelog.d", "next"))
	require.NoError(t, err)
	assert.Empty(t, entries, "explicit output path should bypass the pending area")
}

func TestParseIssues(t *testing.T) {
	tests := map[string]struct {
		values  []string
		want    map[string]string
		wantErr bool
	}{
		"no issues": {
			values: nil,
			want:   nil,
		},
		"bare id": {
			values: []string{"42"},
			want:   map[string]string{"42": ""},
		},
		"id with url": {
			values: []string{"42:https://example.com/42"},
			want:   map[string]string{"42": "https://example.com/42"},
		},
		"whitespace trimmed": {
			values: []string{" 42 : https://example.com/42 "},
			want:   map[string]string{"42": "https://example.com/42"},
		},
		"several issues": {
			values: []string{"1:https://example.com/1", "2"},
			want:   map[string]string{"1": "https://example.com/1", "2": ""},
		},
		"missing id": {
			values:  []string{":https://example.com/42"},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseIssues(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
