package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`
type: feature
section: backend
issues:
  "1234": https://example.com/issues/1234
feature_flags:
  - fancy-widget
description: |
  Added the fancy widget.
  It is very fancy.
`)

	f, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "feature", f.Type)
	assert.Equal(t, "backend", f.Section)
	assert.Equal(t, map[string]string{"1234": "https://example.com/issues/1234"}, f.Issues)
	assert.Equal(t, []string{"fancy-widget"}, f.FeatureFlags)
	assert.Equal(t, "Added the fancy widget.\nIt is very fancy.\n", f.Description)
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	f, err := Parse([]byte("type: bugfix\ndescription: Fixed it.\nextra: whatever\n"))
	require.NoError(t, err)
	assert.Equal(t, "bugfix", f.Type)
}

func TestParseEmptyDocument(t *testing.T) {
	tests := map[string]string{
		"zero bytes":    "",
		"only comments": "# nothing here\n",
		"null document": "null\n",
		"bare marker":   "---\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, IsInvalid(err), "expected InvalidFragmentError, got %v", err)
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("type: [unclosed\n"))
	require.Error(t, err)
	assert.False(t, IsInvalid(err), "syntax errors are not validation errors")
}

func TestEncode(t *testing.T) {
	data, err := Encode(&Fragment{
		Type:         "feature",
		Issues:       map[string]string{"1234": "https://example.com/issues/1234"},
		FeatureFlags: []string{"fancy-widget"},
		Description:  "Added the fancy widget.\n",
	})
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "type: feature\n")
	assert.Contains(t, out, `section: ""`)
	assert.Contains(t, out, `"1234": https://example.com/issues/1234`)
	assert.Contains(t, out, "- fancy-widget")
	assert.Contains(t, out, "description: |\n")
	assert.Contains(t, out, "  Added the fancy widget.\n")
}

func TestEncodeEmptyCollections(t *testing.T) {
	data, err := Encode(&Fragment{Type: "misc", Description: "Housekeeping.\n"})
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "issues: {}")
	assert.Contains(t, out, "feature_flags: []")
}

func TestEncodeParseRoundTrip(t *testing.T) {
	original := &Fragment{
		Type:         "bugfix",
		Section:      "backend",
		Issues:       map[string]string{"99": "https://example.com/issues/99"},
		FeatureFlags: []string{"one", "two"},
		Description:  "Fixed the thing.\nWith details.\n",
	}

	data, err := Encode(original)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}
