// Package fragment defines the change fragment model and its validation
// rules. A fragment is a single-document YAML file describing one change:
// its type (feature, bugfix, ...), an optional section, related issues,
// feature flags and a human-readable description.
package fragment

import (
	"errors"
	"fmt"
	"strings"
)

// Fragment is one change record as stored in the fragment area.
// Type and Section are validated against the project configuration,
// not against a fixed vocabulary.
type Fragment struct {
	Type         string            `yaml:"type"`
	Section      string            `yaml:"section"`
	Issues       map[string]string `yaml:"issues"`
	FeatureFlags []string          `yaml:"feature_flags"`
	Description  string            `yaml:"description"`
}

// Vocabulary supplies the configured fragment types and section paths
// that Validate checks against.
type Vocabulary interface {
	HasFragmentType(name string) bool
	HasSection(path string) bool
}

// InvalidFragmentError reports a fragment that fails validation.
// Field names the offending fragment field, or is empty when the
// document as a whole is unusable.
type InvalidFragmentError struct {
	Field   string
	Message string
}

func (e *InvalidFragmentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid fragment: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid fragment: %s", e.Message)
}

// IsInvalid returns true if the error is an InvalidFragmentError.
func IsInvalid(err error) bool {
	var ie *InvalidFragmentError
	return errors.As(err, &ie)
}

// Validate checks a fragment against the configured vocabulary.
// It performs no I/O and does not mutate the fragment; the same inputs
// always produce the same verdict. A nil fragment reports absent data.
func Validate(f *Fragment, vocab Vocabulary) error {
	if f == nil {
		return &InvalidFragmentError{Message: "no fragment data"}
	}
	if !vocab.HasFragmentType(f.Type) {
		return &InvalidFragmentError{
			Field:   "type",
			Message: fmt.Sprintf("missing or unknown fragment type %q", f.Type),
		}
	}
	if f.Section != "" && !vocab.HasSection(f.Section) {
		return &InvalidFragmentError{
			Field:   "section",
			Message: fmt.Sprintf("unknown section %q", f.Section),
		}
	}
	if strings.TrimSpace(f.Description) == "" {
		return &InvalidFragmentError{
			Field:   "description",
			Message: "description is empty",
		}
	}
	return nil
}
