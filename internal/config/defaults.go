package config

// GetDefaultConfigTemplate returns a fully commented config template
// written by 'fragnote init' to help users discover the options.
func GetDefaultConfigTemplate() string {
	return `# Fragnote configuration
# Change fragments live under change_fragments_path: pending ones in
# next/, archived ones in one directory per released version.

change_fragments_path: changelog.d        # Root of the fragment area
changelog_path: CHANGELOG.md              # Changelog to merge sections into
changelog_output_type: markdown           # markdown | rest

# Marker line inside the changelog; compiled sections are inserted
# directly below it. Compile fails if the marker is missing.
changelog_marker: "<!-- Generated release notes start. -->"

# Fragment types in rendering order. 'name' is the heading shown in the
# changelog; showcontent: false renders only issue references.
fragment_types:
  feature:
    name: Added
    showcontent: true
  bugfix:
    name: Fixed
    showcontent: true
  doc:
    name: Documentation
    showcontent: true
  removal:
    name: Removed
    showcontent: true
  misc:
    name: Misc
    showcontent: false

# Optional named sections (storage path -> display title) rendered after
# the default section, in this order.
# sections:
#   backend: Backend
#   frontend: Frontend
`
}

// GetDefaults returns the default configuration values. The two path
// keys have no default: a project must state where fragments and the
// changelog live.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"changelog_marker":      DefaultMarker,
		"changelog_output_type": OutputMarkdown,
	}
}

// DefaultFragmentTypes returns the fragment type table used when the
// config file does not declare one.
func DefaultFragmentTypes() []FragmentType {
	return []FragmentType{
		{Key: "feature", Name: "Added", ShowContent: true},
		{Key: "bugfix", Name: "Fixed", ShowContent: true},
		{Key: "doc", Name: "Documentation", ShowContent: true},
		{Key: "removal", Name: "Removed", ShowContent: true},
		{Key: "misc", Name: "Misc", ShowContent: false},
	}
}

// DefaultSections returns the section table containing only the default
// section: empty path, no heading, ordered first.
func DefaultSections() []Section {
	return []Section{{Path: "", Title: ""}}
}
