package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/fragnote/internal/app"
	"github.com/ariel-frischer/fragnote/internal/changelog"
	"github.com/ariel-frischer/fragnote/internal/config"
	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
	"github.com/ariel-frischer/fragnote/internal/output"
	"github.com/ariel-frischer/fragnote/internal/progress"
	"github.com/ariel-frischer/fragnote/internal/version"
)

var (
	compileDraft     bool
	compileVersion   string
	compileDate      string
	compileAuthor    string
	compileDelete    bool
	compileNoArchive bool
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile pending change fragments into the changelog",
	Long: `Compile every pending change fragment into one changelog section and
merge it into the changelog below the marker line.

Compiled fragments are archived under the released version together
with a metadata record, unless --delete or --no-archive says
otherwise. One invalid fragment aborts the whole run; nothing is
written until every fragment validates.`,
	Example: `  # Release with an explicit version
  fragnote compile --version 1.4.0

  # Preview without writing anything
  fragnote compile --draft

  # Discard fragments instead of archiving them
  fragnote compile --delete`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().BoolVar(&compileDraft, "draft", false, "Print the rendered section, perform no writes")
	compileCmd.Flags().StringVar(&compileVersion, "version", "", "Version for the changelog heading (default: guessed from project metadata)")
	compileCmd.Flags().StringVar(&compileDate, "date", "", "ISO 8601 date for the changelog heading (default: today)")
	compileCmd.Flags().StringVar(&compileAuthor, "author", "", "Author recorded in archive metadata (default: git user)")
	compileCmd.Flags().BoolVar(&compileDelete, "delete", false, "Delete compiled fragments instead of archiving them")
	compileCmd.Flags().BoolVar(&compileNoArchive, "no-archive", false, "Leave compiled fragments in the pending area")
	compileCmd.MarkFlagsMutuallyExclusive("delete", "no-archive")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	a, cfg, err := loadProject()
	if err != nil {
		return err
	}
	out := cmd.ErrOrStderr()

	ver, err := resolveVersion(a, out)
	if err != nil {
		return err
	}
	date, err := resolveDate(compileDate)
	if err != nil {
		return err
	}

	if compileDraft {
		section, count, err := renderWithSpinner(a, ver.String(), date)
		if err != nil {
			return compileError(cfg, err)
		}
		output.Info(out, "Found %d changelog fragments", count)
		output.Warning(out, "Showing a draft changelog -- no actions will be performed!\n")
		fmt.Fprint(cmd.OutOrStdout(), section)
		return nil
	}

	author := compileAuthor
	if author == "" {
		author = a.GitUser()
	}

	spin := progress.NewSpinner("Compiling change fragments")
	spin.Start()
	res, err := a.CompileFragments(app.CompileOptions{
		Version: ver,
		Date:    date,
		Author:  author,
		Mode:    cleanupMode(),
	})
	spin.Stop()
	if err != nil {
		return compileError(cfg, err)
	}

	output.Info(out, "Found %d changelog fragments", res.Count)
	output.Success(out, "Wrote changelog %s", res.ChangelogPath)
	if len(res.Staged) > 0 {
		output.Success(out, "Staged %s in git", res.ChangelogPath)
	}

	reportProblems(out, res)
	switch {
	case len(res.Archived) > 0:
		output.Info(out, "Archived %d %s under %s", len(res.Archived),
			pluralize(len(res.Archived), "fragment", "fragments"),
			cfg.ChangeFragmentsPath+"/"+ver.String())
	case len(res.Removed) > 0:
		output.Warning(out, "Removed %d old %s.", len(res.Removed),
			pluralize(len(res.Removed), "fragment", "fragments"))
	}
	return nil
}

// resolveVersion returns the explicit --version value, or the best
// guess from project metadata, reporting where the guess came from.
func resolveVersion(a *app.App, out io.Writer) (*semver.Version, error) {
	if compileVersion != "" {
		ver, err := version.Parse(compileVersion)
		if err != nil {
			return nil, apperrors.InvalidVersion(compileVersion, err)
		}
		return ver, nil
	}

	guess, ok := a.GuessVersion()
	if !ok {
		return nil, apperrors.VersionNotGuessed()
	}
	ver, err := version.Parse(guess.Version)
	if err != nil {
		return nil, apperrors.WrapWithMessage(err, apperrors.Precondition,
			fmt.Sprintf("guessed version %s does not parse", guess.Version),
			"Pass a valid version with: fragnote compile --version <version>")
	}
	output.Info(out, "Guessed version %s via %s", ver, guess.Source)
	return ver, nil
}

// resolveDate validates an explicit --date value or defaults to today.
func resolveDate(value string) (string, error) {
	if value == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return "", apperrors.InvalidDate(value)
	}
	return value, nil
}

func cleanupMode() app.CleanupMode {
	switch {
	case compileDelete:
		return app.Delete
	case compileNoArchive:
		return app.Keep
	default:
		return app.Archive
	}
}

// renderWithSpinner renders the pending section with a progress
// spinner on interactive terminals.
func renderWithSpinner(a *app.App, version, date string) (string, int, error) {
	spin := progress.NewSpinner("Rendering change fragments")
	spin.Start()
	defer spin.Stop()
	return a.RenderPending(version, date)
}

// reportProblems lists per-file cleanup failures as warnings; they do
// not fail the run, the changelog is already written.
func reportProblems(out io.Writer, res *app.CompileResult) {
	if len(res.Problems) == 0 {
		return
	}
	verb := "archive"
	if len(res.Removed) > 0 || compileDelete {
		verb = "remove"
	}
	output.Warning(out, "Could not %s the following:", verb)
	for _, p := range res.Problems {
		output.Info(out, "  %s: %v", p.Path, p.Err)
	}
}

// compileError translates compile failures into actionable errors.
func compileError(cfg *config.Config, err error) error {
	var markerErr *changelog.MarkerNotFoundError
	var batchErr *app.CompileError
	switch {
	case errors.As(err, &markerErr):
		return apperrors.MarkerNotFound(markerErr.Path, markerErr.Marker)
	case errors.As(err, &batchErr):
		return apperrors.CompileFailed(err)
	case errors.Is(err, os.ErrNotExist):
		return apperrors.ChangelogNotFound(cfg.ChangelogPath)
	}
	return err
}
