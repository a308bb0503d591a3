package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/fragnote/internal/config"
	"github.com/ariel-frischer/fragnote/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold fragnote in the current project",
	Long: `Set up everything fragnote needs in the current project.

This command:
  1. Writes a commented fragnote.yaml when none exists
  2. Creates the pending fragment directory
  3. Creates a changelog with the insertion marker when none exists

Existing files are never overwritten; init fills in what is missing
and reports what it found.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Step 1: configuration
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(out, "✓ Config: created at %s\n", configPath)
	} else {
		fmt.Fprintf(out, "✓ Config: found at %s\n", configPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Step 2: pending fragment directory
	pendingDir := filepath.Join(cfg.ChangeFragmentsPath, store.PendingDir)
	if err := os.MkdirAll(pendingDir, 0o755); err != nil {
		return fmt.Errorf("failed to create fragment directory: %w", err)
	}
	fmt.Fprintf(out, "✓ Fragments: %s/ ready\n", pendingDir)

	// Step 3: changelog
	data, err := os.ReadFile(cfg.ChangelogPath)
	switch {
	case os.IsNotExist(err):
		seed := "# Changelog\n\n" + cfg.ChangelogMarker + "\n"
		if err := os.WriteFile(cfg.ChangelogPath, []byte(seed), 0o644); err != nil {
			return fmt.Errorf("failed to write changelog: %w", err)
		}
		fmt.Fprintf(out, "✓ Changelog: created at %s\n", cfg.ChangelogPath)
	case err != nil:
		return fmt.Errorf("failed to read changelog: %w", err)
	case strings.Contains(string(data), cfg.ChangelogMarker):
		fmt.Fprintf(out, "✓ Changelog: found at %s\n", cfg.ChangelogPath)
	default:
		fmt.Fprintf(out, "⚠ Changelog: %s has no insertion marker\n", cfg.ChangelogPath)
		fmt.Fprintf(out, "\nAdd this line where compiled sections should be inserted:\n\n  %s\n", cfg.ChangelogMarker)
	}

	fmt.Fprintf(out, "\nWrite a first fragment with 'fragnote compose', then release with\n'fragnote compile'.\n")
	return nil
}
