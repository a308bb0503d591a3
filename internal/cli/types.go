package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the configured fragment types",
	Long: `List the fragment type keys accepted by compose, one per line in
configured order. Useful for shell completion and scripts.`,
	Args: cobra.NoArgs,
	RunE: runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	a, _, err := loadProject()
	if err != nil {
		return err
	}
	for _, ft := range a.FragmentTypes() {
		fmt.Fprintln(cmd.OutOrStdout(), ft.Key)
	}
	return nil
}
