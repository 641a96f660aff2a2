package main

import (
	"fmt"

	"github.com/aretw0/ntrode/internal/cli"
	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the handler kinds available to configuration files",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range cli.Kinds() {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
