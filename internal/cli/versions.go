package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List released versions with archived fragments",
	Long: `List the versions that have fragments archived under the fragment
directory, newest first, one per line.`,
	Args: cobra.NoArgs,
	RunE: runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	a, _, err := loadProject()
	if err != nil {
		return err
	}
	versions, err := a.Versions()
	if err != nil {
		return err
	}
	for _, v := range versions {
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	}
	return nil
}
