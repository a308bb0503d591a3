package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/fragnote/internal/app"
	apperrors "github.com/ariel-frischer/fragnote/internal/errors"
	"github.com/ariel-frischer/fragnote/internal/output"
	"github.com/ariel-frischer/fragnote/internal/watch"
)

var previewWatch bool

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the pending changelog section without writing anything",
	Long: `Render the changelog section that compile would produce from the
pending fragments and print it to stdout. The changelog file is never
touched.

The section heading uses the guessed project version when one is
available and "Unreleased" otherwise.`,
	Example: `  # One-off preview
  fragnote preview

  # Re-render whenever a fragment changes
  fragnote preview --watch`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&previewWatch, "watch", false, "Re-render whenever a fragment changes")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, cfg, err := loadProject()
	if err != nil {
		return err
	}

	if !previewWatch {
		return renderPreview(cmd, a)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(0)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(cfg.ChangeFragmentsPath); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	if err := renderPreview(cmd, a); err != nil {
		output.Warning(errOut, "Render failed: %v", err)
	}
	output.Info(errOut, "Watching %s for changes, Ctrl-C to stop", cfg.ChangeFragmentsPath)

	err = w.Run(ctx, func() {
		output.Info(errOut, "Fragments changed at %s", time.Now().Format("15:04:05"))
		if err := renderPreview(cmd, a); err != nil {
			output.Warning(errOut, "Render failed: %v", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// renderPreview writes the current pending section to stdout.
func renderPreview(cmd *cobra.Command, a *app.App) error {
	version := "Unreleased"
	if guess, ok := a.GuessVersion(); ok {
		version = guess.Version
	}

	section, count, err := a.RenderPending(version, time.Now().Format("2006-01-02"))
	if err != nil {
		var batchErr *app.CompileError
		if errors.As(err, &batchErr) {
			return apperrors.CompileFailed(err)
		}
		return err
	}

	output.Info(cmd.ErrOrStderr(), "Found %d changelog fragments", count)
	fmt.Fprint(cmd.OutOrStdout(), section)
	return nil
}
