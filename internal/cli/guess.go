package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
	"github.com/ariel-frischer/fragnote/internal/output"
)

var guessCmd = &cobra.Command{
	Use:   "guess",
	Short: "Guess the project version from project metadata",
	Long: `Guess the current project version by inspecting project metadata
documents, currently the version field of package.json. The version is
printed to stdout; the strategy that produced it goes to stderr.

Exits non-zero when no strategy yields a version.`,
	Args: cobra.NoArgs,
	RunE: runGuess,
}

func init() {
	rootCmd.AddCommand(guessCmd)
}

func runGuess(cmd *cobra.Command, args []string) error {
	a, _, err := loadProject()
	if err != nil {
		return err
	}
	guess, ok := a.GuessVersion()
	if !ok {
		return apperrors.VersionNotGuessed()
	}
	output.Info(cmd.ErrOrStderr(), "Guessed via %s", guess.Source)
	fmt.Fprintln(cmd.OutOrStdout(), guess.Version)
	return nil
}
