package fragment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Parse decodes a single YAML document into a Fragment. An empty or
// null document is reported as an InvalidFragmentError rather than a
// parse error, so callers can present it alongside other validation
// failures.
func Parse(data []byte) (*Fragment, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InvalidFragmentError{Message: "no fragment data"}
		}
		return nil, fmt.Errorf("parsing fragment YAML: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Tag == "!!null" {
		return nil, &InvalidFragmentError{Message: "no fragment data"}
	}

	var f Fragment
	if err := doc.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing fragment YAML: %w", err)
	}
	return &f, nil
}

// Encode serializes a fragment with a stable field order, issue ids
// sorted, and the description emitted as a literal block scalar so
// multi-line descriptions stay readable when fragments are hand-edited.
func Encode(f *Fragment) ([]byte, error) {
	issues := &yaml.Node{Kind: yaml.MappingNode}
	ids := make([]string, 0, len(f.Issues))
	for id := range f.Issues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		issues.Content = append(issues.Content, strNode(id), strNode(f.Issues[id]))
	}

	flags := &yaml.Node{Kind: yaml.SequenceNode}
	for _, flag := range f.FeatureFlags {
		flags.Content = append(flags.Content, strNode(flag))
	}

	description := strNode(f.Description)
	description.Style = yaml.LiteralStyle

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content,
		strNode("type"), strNode(f.Type),
		strNode("section"), strNode(f.Section),
		strNode("issues"), issues,
		strNode("feature_flags"), flags,
		strNode("description"), description,
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encoding fragment YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding fragment YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// strNode builds a string scalar. The explicit tag keeps numeric-looking
// values, such as issue ids, quoted as strings on output.
func strNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}
