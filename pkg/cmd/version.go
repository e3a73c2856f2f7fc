package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sharky-compress/sharky/pkg/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information for sharky",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "Sharky Version:", version.Version)
		fmt.Fprintln(cmd.OutOrStdout(), "Sharky GitCommit:", version.GitCommit)
	},
}
