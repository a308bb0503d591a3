// fragnote - change fragment compiler for human-curated changelogs
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/fragnote

// Package config loads and validates the fragnote project configuration
// using koanf. Values are loaded with priority: environment variables
// (FRAGNOTE_*) > project config file > defaults.
//
// The fragment_types and sections tables are order-sensitive: their
// declared order decides rendering order in the changelog. Since koanf
// flattens into unordered maps, those two tables are re-read from the
// raw document with a yaml.v3 node walk.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	goyaml "gopkg.in/yaml.v3"
)

// Changelog output formats.
const (
	OutputMarkdown = "markdown"
	OutputRest     = "rest"
)

// DefaultMarker is the comment line after which compiled sections are
// inserted when the configuration does not name its own marker.
const DefaultMarker = "<!-- Generated release notes start. -->"

// DefaultConfigFilename is the project config file looked up when no
// --config flag is given.
const DefaultConfigFilename = "fragnote.yaml"

// FragmentType describes one configured fragment kind. Key is the
// identifier used in fragment files, Name the heading shown in the
// changelog. When ShowContent is false only issue references render.
type FragmentType struct {
	Key         string
	Name        string
	ShowContent bool
}

// Section maps a storage path to its display title. The default
// section has an empty path and an empty title and renders without a
// heading; it always orders first.
type Section struct {
	Path  string
	Title string
}

// Config is the loaded fragnote project configuration.
type Config struct {
	// ChangeFragmentsPath is the root of the fragment area, holding the
	// pending directory and per-version archive directories.
	ChangeFragmentsPath string `koanf:"change_fragments_path" validate:"required"`

	// ChangelogPath is the changelog document compiled sections are
	// merged into.
	ChangelogPath string `koanf:"changelog_path" validate:"required"`

	// ChangelogMarker is the literal marker line new sections are
	// inserted after.
	ChangelogMarker string `koanf:"changelog_marker" validate:"required"`

	// ChangelogOutputType selects the rendered syntax.
	ChangelogOutputType string `koanf:"changelog_output_type" validate:"required,oneof=markdown rest"`

	// FragmentTypes and Sections keep the declared order of the config
	// document; they are populated by the node walk, not by koanf.
	FragmentTypes []FragmentType `koanf:"-"`
	Sections      []Section      `koanf:"-"`
}

// Load reads configuration from path, environment variables and
// defaults. A missing file is not an error by itself: environment
// variables may supply the required keys, and validation reports
// whatever is still missing.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	data, readErr := os.ReadFile(path)
	exists := readErr == nil
	if readErr != nil && !os.IsNotExist(readErr) {
		return nil, fmt.Errorf("reading config %s: %w", path, readErr)
	}

	if exists {
		if err := ValidateYAMLSyntax(data, path); err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("FRAGNOTE_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.FragmentTypes = DefaultFragmentTypes()
	cfg.Sections = DefaultSections()
	if exists {
		if err := cfg.applyOrderedTables(data, path); err != nil {
			return nil, err
		}
	}

	if err := ValidateConfigValues(&cfg, path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// HasFragmentType reports whether key names a configured fragment type.
func (c *Config) HasFragmentType(key string) bool {
	_, ok := c.FragmentType(key)
	return ok
}

// FragmentType looks up a configured fragment type by its key.
func (c *Config) FragmentType(key string) (FragmentType, bool) {
	for _, ft := range c.FragmentTypes {
		if ft.Key == key {
			return ft, true
		}
	}
	return FragmentType{}, false
}

// HasSection reports whether path names a configured section. The
// default section (empty path) is always present.
func (c *Config) HasSection(path string) bool {
	for _, s := range c.Sections {
		if s.Path == path {
			return true
		}
	}
	return false
}

// applyOrderedTables replaces the default fragment_types and sections
// tables with the ones declared in the document, keeping their order.
func (c *Config) applyOrderedTables(data []byte, path string) error {
	var doc goyaml.Node
	if err := goyaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != goyaml.MappingNode {
		return nil
	}

	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "fragment_types":
			types, err := parseFragmentTypes(value)
			if err != nil {
				return &ValidationError{FilePath: path, Field: "fragment_types", Message: err.Error()}
			}
			c.FragmentTypes = types
		case "sections":
			sections, err := parseSections(value)
			if err != nil {
				return &ValidationError{FilePath: path, Field: "sections", Message: err.Error()}
			}
			c.Sections = sections
		}
	}
	return nil
}

// parseFragmentTypes decodes the fragment_types mapping in declared
// order. A type without an explicit showcontent defaults to true.
func parseFragmentTypes(node *goyaml.Node) ([]FragmentType, error) {
	if node.Kind != goyaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping of type key to settings")
	}

	types := make([]FragmentType, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var spec struct {
			Name        string `yaml:"name"`
			ShowContent *bool  `yaml:"showcontent"`
		}
		if err := value.Decode(&spec); err != nil {
			return nil, fmt.Errorf("type %q: %v", key.Value, err)
		}

		showContent := true
		if spec.ShowContent != nil {
			showContent = *spec.ShowContent
		}
		types = append(types, FragmentType{Key: key.Value, Name: spec.Name, ShowContent: showContent})
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("must declare at least one fragment type")
	}
	return types, nil
}

// parseSections decodes the sections mapping (path to display title) in
// declared order. The default section stays first; declaring an empty
// path overrides its title.
func parseSections(node *goyaml.Node) ([]Section, error) {
	if node.Kind != goyaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping of path to display title")
	}

	sections := DefaultSections()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != goyaml.ScalarNode {
			return nil, fmt.Errorf("section %q: title must be a string", key.Value)
		}
		if key.Value == "" {
			sections[0].Title = value.Value
			continue
		}
		sections = append(sections, Section{Path: key.Value, Title: value.Value})
	}
	return sections, nil
}

// envTransform converts environment variable names to config keys.
// Example: FRAGNOTE_CHANGELOG_PATH -> changelog_path
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "FRAGNOTE_"))
}
