// Package cli implements the fragnote command tree.
package cli

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/fragnote/internal/app"
	"github.com/ariel-frischer/fragnote/internal/config"
	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
	"github.com/ariel-frischer/fragnote/internal/gitstage"
	"github.com/ariel-frischer/fragnote/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "fragnote",
	Short: "Compile change fragments into a curated changelog",
	Long: `fragnote keeps release notes as small YAML fragments, one change
each, written alongside the code change itself. At release time the
pending fragments are validated, rendered into one changelog section
and merged into the changelog below a marker line, and the consumed
fragments are archived under the released version.

Set a project up once with 'fragnote init'; after that the usual cycle
is 'fragnote compose' per change and 'fragnote compile' per release.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)",
		version.Version, version.Commit, version.BuildDate),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config",
		config.DefaultConfigFilename, "Project configuration file")

	// Flag parse failures are argument errors, shown with the usage
	// line of the command they were passed to.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})
}

// Execute runs the command tree. Errors are printed here in their
// structured form; the caller maps them to an exit code via ExitCode.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printTopLevelError(err)
	}
	return err
}

func printTopLevelError(err error) {
	if cliErr := apperrors.AsCLIError(err); cliErr != nil {
		apperrors.PrintError(cliErr)
		return
	}
	apperrors.PrintSimpleError(err, categoryOf(err))
}

// loadProject loads the project configuration and wires the
// application over the current directory.
func loadProject() (*app.App, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, osfs.New("."), gitstage.Open(""))
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

// loadConfig reads the configuration named by --config. Validation
// errors carry their own position details and pass through untouched.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}
		return nil, apperrors.ConfigLoadFailed(configPath, err)
	}
	return cfg, nil
}

// pluralize picks the singular or plural noun for a count.
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
