package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/conceptmap/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "cmap %s\n", version.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
