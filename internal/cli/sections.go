package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "List the configured changelog sections",
	Long: `List the section paths accepted by compose, one per line in
configured order. The default section has no path and is omitted.`,
	Args: cobra.NoArgs,
	RunE: runSections,
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
}

func runSections(cmd *cobra.Command, args []string) error {
	a, _, err := loadProject()
	if err != nil {
		return err
	}
	for _, s := range a.Sections() {
		if s.Path == "" {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.Path)
	}
	return nil
}
