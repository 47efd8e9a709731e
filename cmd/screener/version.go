package main

import (
	"fmt"

	"github.com/aretw0/screener"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of screener",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "screener version %s\n", screener.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
