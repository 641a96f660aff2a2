package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ntrode",
	Short: "NTrode runs cyclic execution containers",
	Long: `NTrode drives pipelines of handlers through the INPUT, PROCESS and OUTPUT
stages of a cyclic state machine, one independent container per data channel.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "ntrode.yaml", "Configuration file (YAML, JSON or TOML)")
}

// configPath returns the positional argument when given, the --config flag otherwise.
func configPath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("config")
	if !cmd.Flags().Changed("config") && len(args) > 0 {
		path = args[0]
	}
	return path
}
