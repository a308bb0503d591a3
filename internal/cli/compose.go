package cli

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/fragnote/internal/app"
	"github.com/ariel-frischer/fragnote/internal/config"
	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
	"github.com/ariel-frischer/fragnote/internal/fragment"
	"github.com/ariel-frischer/fragnote/internal/output"
	"github.com/ariel-frischer/fragnote/internal/store"
)

var (
	composeOutput      string
	composeType        string
	composeSection     string
	composeIssues      []string
	composeFlags       []string
	composeDescription string
	composeEdit        bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a new change fragment",
	Long: `Compose a new change fragment in the pending area.

Field values are given as flags; --edit opens the assembled fragment
in EDITOR so missing values can be completed by hand. The fragment is
validated before it is saved.`,
	Example: `  # A bug fix referencing an issue
  fragnote compose -t bugfix -i 1234:https://example.com/issues/1234 -d 'Fixed the importer.'

  # Start from a skeleton and finish in the editor
  fragnote compose -t feature --edit`,
	Args: cobra.NoArgs,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVarP(&composeOutput, "output", "o", "", "Write the fragment to this path instead of the pending area")
	composeCmd.Flags().StringVarP(&composeType, "type", "t", "", "Fragment type, one of the values from 'fragnote types'")
	composeCmd.Flags().StringVarP(&composeSection, "section", "s", "", "Section, one of the values from 'fragnote sections'")
	composeCmd.Flags().StringArrayVarP(&composeIssues, "issue", "i", nil, "Related issue as <number> or <number>:<url>, repeatable")
	composeCmd.Flags().StringArrayVarP(&composeFlags, "feature-flag", "f", nil, "Feature flag required by the change, repeatable")
	composeCmd.Flags().StringVarP(&composeDescription, "description", "d", "", "Description of the change")
	composeCmd.Flags().BoolVar(&composeEdit, "edit", false, "Complete the fragment in EDITOR")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	a, cfg, err := loadProject()
	if err != nil {
		return err
	}

	if composeType != "" && !cfg.HasFragmentType(composeType) {
		return apperrors.UnknownFragmentType(composeType, fragmentTypeKeys(cfg))
	}
	if composeSection != "" && !cfg.HasSection(composeSection) {
		return apperrors.UnknownSection(composeSection, sectionPaths(cfg))
	}
	issues, err := parseIssues(composeIssues)
	if err != nil {
		return err
	}

	frag := &fragment.Fragment{
		Type:         composeType,
		Section:      composeSection,
		Issues:       issues,
		FeatureFlags: composeFlags,
		Description:  composeDescription,
	}

	// Editor-composed text is persisted verbatim so hand formatting
	// survives; flag-composed fragments go through canonical encoding.
	var text []byte
	if composeEdit {
		skeleton, err := fragment.Encode(frag)
		if err != nil {
			return err
		}
		if text, err = editFragment(cmd, a, skeleton); err != nil {
			return err
		}
	}

	if composeOutput != "" {
		if text == nil {
			if text, err = fragment.Encode(frag); err != nil {
				return err
			}
		}
		if err := a.WriteFragmentTo(text, composeOutput); err != nil {
			return composeError(err)
		}
		output.Success(cmd.ErrOrStderr(), "Wrote fragment %s", composeOutput)
		return nil
	}

	var file store.File
	if text != nil {
		file, err = a.WriteFragment(text)
	} else {
		file, err = a.ComposeFragment(frag)
	}
	if err != nil {
		return composeError(err)
	}
	output.Success(cmd.ErrOrStderr(), "Wrote fragment %s", a.FragmentPath(file))
	return nil
}

// editFragment runs the edit and validate loop until the fragment is
// valid, the editor returns nothing, or the user gives up.
func editFragment(cmd *cobra.Command, a *app.App, text []byte) ([]byte, error) {
	for {
		edited, err := editText(text)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(edited)) == 0 {
			return nil, apperrors.CompositionAborted()
		}

		verr := a.ValidateText(edited)
		if verr == nil {
			return edited, nil
		}
		output.Warning(cmd.ErrOrStderr(), "Invalid fragment: %v", verr)
		if !promptConfirm(cmd, "Edit again?", true) {
			return nil, composeError(verr)
		}
		text = edited
	}
}

// composeError decorates store and validation failures with
// remediation steps.
func composeError(err error) error {
	if fragment.IsInvalid(err) {
		return apperrors.InvalidFragment(err)
	}
	if errors.Is(err, os.ErrExist) {
		return apperrors.FragmentExists(err)
	}
	return err
}

// parseIssues converts repeated --issue values into the issues map.
// A bare issue number maps to an empty URL.
func parseIssues(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	issues := make(map[string]string, len(values))
	for _, value := range values {
		id, url, _ := strings.Cut(value, ":")
		id, url = strings.TrimSpace(id), strings.TrimSpace(url)
		if id == "" {
			return nil, apperrors.InvalidIssueSpec(value)
		}
		issues[id] = url
	}
	return issues, nil
}

func fragmentTypeKeys(cfg *config.Config) []string {
	keys := make([]string, 0, len(cfg.FragmentTypes))
	for _, ft := range cfg.FragmentTypes {
		keys = append(keys, ft.Key)
	}
	return keys
}

func sectionPaths(cfg *config.Config) []string {
	paths := make([]string, 0, len(cfg.Sections))
	for _, s := range cfg.Sections {
		if s.Path != "" {
			paths = append(paths, s.Path)
		}
	}
	return paths
}
