// Package render turns validated change fragments into changelog text.
//
// Rendering happens at two levels: FragmentText produces the entry text
// for a single fragment (description, feature-flag annotation and issue
// links), and Section assembles all entries for one release into a
// markdown or reStructuredText section, grouped by configured section
// and fragment type in their declared order.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ariel-frischer/fragnote/internal/config"
	"github.com/ariel-frischer/fragnote/internal/fragment"
)

// Entry pairs a parsed fragment with its source filename. Filenames
// carry a millisecond timestamp prefix, so sorting by filename orders
// entries chronologically and keeps section output independent of
// discovery order.
type Entry struct {
	Filename string
	Fragment *fragment.Fragment
}

var (
	markdownHeadings = []string{"##", "###", "####"}
	restUnderlines   = []string{"=", "-", "~"}
)

// FragmentText renders one fragment to its changelog entry text.
//
// The result is the first description line, the feature-flag annotation,
// the issue links (ids sorted, numeric ids prefixed with '#'), then the
// remaining description lines. When showContent is false only the issue
// links are rendered; the description and flags are dropped. A fragment
// with no description fails even then, validation requires one.
func FragmentText(f *fragment.Fragment, showContent bool, format string) (string, error) {
	if strings.TrimSpace(f.Description) == "" {
		return "", fmt.Errorf("fragment has no description")
	}

	issues := issuesText(f.Issues, format)
	if !showContent {
		return issues, nil
	}

	first, rest := splitDescription(f.Description)
	return first + featureFlagsText(f.FeatureFlags) + issues + rest, nil
}

// Section renders the changelog section for one release and writes it
// to w. The label is the version heading text (usually a semantic
// version) and date its release date in YYYY-MM-DD form.
//
// Output is deterministic: sections appear in configured order with the
// default section first, types in configured order, and entries within
// a group in filename order. Groups with nothing to say are omitted; a
// release with no renderable entries reads "No significant changes."
func Section(entries []Entry, label, date string, cfg *config.Config, w io.Writer) error {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Filename < ordered[j].Filename })

	format := cfg.ChangelogOutputType

	// section path -> fragment type key -> rendered entry texts
	grouped := make(map[string]map[string][]string)
	for _, e := range ordered {
		ft, ok := cfg.FragmentType(e.Fragment.Type)
		if !ok {
			return fmt.Errorf("fragment %s: unknown fragment type %q", e.Filename, e.Fragment.Type)
		}
		if !cfg.HasSection(e.Fragment.Section) {
			return fmt.Errorf("fragment %s: unknown section %q", e.Filename, e.Fragment.Section)
		}

		text, err := FragmentText(e.Fragment, ft.ShowContent, format)
		if err != nil {
			return fmt.Errorf("fragment %s: %w", e.Filename, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if grouped[e.Fragment.Section] == nil {
			grouped[e.Fragment.Section] = make(map[string][]string)
		}
		grouped[e.Fragment.Section][ft.Key] = append(grouped[e.Fragment.Section][ft.Key], text)
	}

	var b strings.Builder
	writeHeading(&b, fmt.Sprintf("%s (%s)", label, date), 0, format)

	wrote := false
	for _, sec := range cfg.Sections {
		types := grouped[sec.Path]
		if len(types) == 0 {
			continue
		}

		depth := 1
		if sec.Title != "" {
			b.WriteString("\n")
			writeHeading(&b, sec.Title, 1, format)
			depth = 2
		}

		for _, ft := range cfg.FragmentTypes {
			texts := types[ft.Key]
			if len(texts) == 0 {
				continue
			}
			b.WriteString("\n")
			writeHeading(&b, ft.Name, depth, format)
			b.WriteString("\n")
			for _, text := range texts {
				writeItem(&b, text)
			}
			wrote = true
		}
	}

	if !wrote {
		b.WriteString("\nNo significant changes.\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// SectionString is a convenience wrapper that renders to a string.
func SectionString(entries []Entry, label, date string, cfg *config.Config) (string, error) {
	var b strings.Builder
	if err := Section(entries, label, date, cfg, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// writeHeading writes a heading at the given nesting depth: '##'-style
// prefixes for markdown, underline characters of matching length for
// reStructuredText.
func writeHeading(b *strings.Builder, text string, depth int, format string) {
	if format == config.OutputRest {
		b.WriteString(text + "\n")
		b.WriteString(strings.Repeat(restUnderlines[depth], utf8.RuneCountInString(text)) + "\n")
		return
	}
	b.WriteString(markdownHeadings[depth] + " " + text + "\n")
}

// writeItem writes one rendered entry as a list item, indenting
// continuation lines so multi-line descriptions stay inside the item.
func writeItem(b *strings.Builder, text string) {
	lines := strings.Split(text, "\n")
	b.WriteString("- " + lines[0] + "\n")
	for _, line := range lines[1:] {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
}

// splitDescription splits a description into its first line and the
// remainder. The remainder keeps a leading newline when present and is
// stripped of trailing whitespace.
func splitDescription(description string) (first, rest string) {
	lines := strings.Split(strings.TrimSuffix(description, "\n"), "\n")
	first = lines[0]
	if len(lines) > 1 {
		rest = "\n" + strings.Join(lines[1:], "\n")
	}
	return first, strings.TrimRight(rest, " \t\r\n")
}

// issuesText renders the issue references for a fragment, sorted by
// issue id, each hyperlinked when a URL is known. The result carries a
// leading space so it can be appended directly to the first line.
func issuesText(issues map[string]string, format string) string {
	if len(issues) == 0 {
		return ""
	}

	ids := make([]string, 0, len(issues))
	for id := range issues {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	links := make([]string, 0, len(ids))
	for _, id := range ids {
		links = append(links, hyperlink(issueRef(id), issues[id], format))
	}
	return " " + strings.Join(links, " ")
}

// featureFlagsText renders the feature-flag annotation, for example
// " (Features: `alpha`, `beta`)". Flags keep their declared order.
func featureFlagsText(flags []string) string {
	if len(flags) == 0 {
		return ""
	}

	noun := "Features"
	if len(flags) == 1 {
		noun = "Feature"
	}

	quoted := make([]string, len(flags))
	for i, flag := range flags {
		quoted[i] = "`" + flag + "`"
	}
	return fmt.Sprintf(" (%s: %s)", noun, strings.Join(quoted, ", "))
}

// issueRef prefixes purely numeric issue ids with '#'; other ids pass
// through unchanged.
func issueRef(id string) string {
	if id == "" {
		return id
	}
	for _, r := range id {
		if !unicode.IsDigit(r) {
			return id
		}
	}
	return "#" + id
}

// hyperlink renders text linking to url in the target format, or the
// bare text when no URL is known.
func hyperlink(text, url, format string) string {
	if url == "" {
		return text
	}
	if format == config.OutputRest {
		return fmt.Sprintf("`%s <%s>`", text, url)
	}
	return fmt.Sprintf("[%s](%s)", text, url)
}
