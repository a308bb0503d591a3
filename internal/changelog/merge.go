// Package changelog merges compiled release sections into the project
// changelog document.
//
// The changelog is owned by humans; this package only ever inserts text
// directly after a configured marker line and never rewrites anything
// else. The rewrite is atomic (temp file + rename) so a failed merge
// cannot leave a half-written changelog behind.
package changelog

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// MarkerNotFoundError reports a changelog document that does not
// contain the configured insertion marker. Nothing is written when this
// is returned.
type MarkerNotFoundError struct {
	Path   string
	Marker string
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("changelog %s does not contain the marker %q", e.Path, e.Marker)
}

// Merge inserts section into the changelog at path, immediately after
// the line containing the first occurrence of marker. The section's
// first line (the version heading) lands directly under the marker
// line and the remainder follows; all surrounding content is preserved
// byte for byte.
//
// A missing marker fails with MarkerNotFoundError and leaves the file
// untouched. The rewrite goes through a temp file and a rename, so the
// changelog is replaced entirely or not at all.
func Merge(fsys billy.Filesystem, path, marker, section string) error {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("reading changelog %s: %w", path, err)
	}
	doc := string(data)

	idx := strings.Index(doc, marker)
	if idx < 0 {
		return &MarkerNotFoundError{Path: path, Marker: marker}
	}

	// Insert after the end of the line holding the marker. A marker on
	// the final line without a trailing newline gets one first.
	insertAt := idx + len(marker)
	if nl := strings.IndexByte(doc[insertAt:], '\n'); nl >= 0 {
		insertAt += nl + 1
	} else {
		doc += "\n"
		insertAt = len(doc)
	}

	merged := doc[:insertAt] + normalizeSection(section) + doc[insertAt:]
	return writeAtomic(fsys, path, []byte(merged))
}

// normalizeSection ensures the inserted text ends with a newline so the
// content below the marker still starts on its own line.
func normalizeSection(section string) string {
	if section == "" || strings.HasSuffix(section, "\n") {
		return section
	}
	return section + "\n"
}

// writeAtomic replaces the file at path by writing to a sibling temp
// file and renaming it into place.
func writeAtomic(fsys billy.Filesystem, path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := util.WriteFile(fsys, tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp changelog: %w", err)
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("replacing changelog %s: %w", path, err)
	}
	return nil
}
