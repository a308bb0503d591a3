package errors

import (
	"fmt"
	"strings"
)

// Common error messages for the fragnote CLI.
// These templates ensure consistent, actionable error messages.

// UnknownFragmentType creates an error for a fragment type not present in configuration.
func UnknownFragmentType(value string, known []string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("missing or unknown fragment type: %s", value),
		"Known types: "+strings.Join(known, ", "),
		"List them any time with: fragnote types",
	)
}

// UnknownSection creates an error for a section not present in configuration.
func UnknownSection(value string, known []string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("missing or unknown section: %s", value),
		"Known sections: "+strings.Join(known, ", "),
		"List them any time with: fragnote sections",
	)
}

// InvalidIssueSpec creates an error for a malformed --issue value.
func InvalidIssueSpec(value string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid issue format: %s", value),
		"fragnote compose -i <number> or -i <number>:<url>",
		"Example: fragnote compose -t bugfix -i 1234:https://example.com/issues/1234",
	)
}

// InvalidDate creates an error for a date that is not ISO 8601.
func InvalidDate(value string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid date: %s", value),
		"fragnote compile --date YYYY-MM-DD",
		"Dates use ISO 8601, e.g. 2026-08-25",
		"Omit --date to use today's date",
	)
}

// InvalidVersion creates an error for a version string that does not parse.
func InvalidVersion(value string, err error) *CLIError {
	return WrapWithMessage(err, Argument,
		fmt.Sprintf("invalid version: %s", value),
		"Versions follow semantic versioning, e.g. 1.2.3 or 1.2.3-rc1",
	)
}

// VersionNotGuessed creates an error when no guess strategy produced a version.
func VersionNotGuessed() *CLIError {
	return NewPreconditionError(
		"version cannot be guessed, provide it explicitly",
		"Pass it with: fragnote compile --version <version>",
		"Or add a version field to package.json",
	)
}

// CompositionAborted creates an error for an editor session that produced no fragment.
func CompositionAborted() *CLIError {
	return NewPreconditionError(
		"aborting composition, the edited fragment was empty",
		"Save a non-empty fragment in the editor to finish composing",
	)
}

// EditorNotSet creates an error when --edit is requested without a usable editor.
func EditorNotSet() *CLIError {
	return NewPreconditionError(
		"no editor configured",
		"Set the EDITOR environment variable, e.g. export EDITOR=vim",
		"Or pass the fragment fields as flags instead of using --edit",
	)
}

// MarkerNotFound creates an error for a changelog missing its insertion marker.
func MarkerNotFound(path, marker string) *CLIError {
	return NewPreconditionError(
		fmt.Sprintf("changelog marker not found in %s", path),
		"Add the marker line to the changelog: "+marker,
		"Or set changelog_marker in fragnote.yaml to a sentinel already present",
	)
}

// ChangelogNotFound creates an error for a missing changelog file.
func ChangelogNotFound(path string) *CLIError {
	return NewPreconditionError(
		fmt.Sprintf("changelog not found: %s", path),
		"Run 'fragnote init' to scaffold one with the insertion marker",
		"Or point changelog_path in fragnote.yaml at an existing file",
	)
}

// FragmentExists creates an error for a generated fragment name that already exists.
func FragmentExists(err error) *CLIError {
	return Wrap(err, Precondition,
		"Re-run the command; a fresh name will be generated",
		"Recurring collisions point at a clock or entropy fault worth investigating",
	)
}

// InvalidFragment creates an error for a fragment that failed validation.
func InvalidFragment(err error) *CLIError {
	return Wrap(err, Validation,
		"Check 'fragnote types' and 'fragnote sections' for known values",
		"A description is required and must not be blank",
	)
}

// CompileFailed creates an error for a compile run aborted by bad fragments.
func CompileFailed(err error) *CLIError {
	return Wrap(err, Validation,
		"Fix each listed fragment and re-run",
		"Preview the result without writing via: fragnote compile --draft",
	)
}

// ConfigLoadFailed creates an error for configuration that could not be loaded.
func ConfigLoadFailed(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to load %s", path),
		"Run 'fragnote init' to create a commented default configuration",
		"Scalar keys can also be set via FRAGNOTE_* environment variables",
	)
}
