package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/ntrode"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ntrode",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ntrode version %s\n", strings.TrimSpace(ntrode.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
