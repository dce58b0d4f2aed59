package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/livescribe/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
