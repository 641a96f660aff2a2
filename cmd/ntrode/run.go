package main

import (
	"fmt"

	"github.com/aretw0/ntrode/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [config]",
	Short: "Run every container of a configuration file",
	Long: `Builds one container per configured ntrode and runs them in parallel until they
finish, the configured timeout expires or the process is interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logLevel, _ := cmd.Flags().GetString("log-level")
		logFile, _ := cmd.Flags().GetString("log-file")
		httpAddr, _ := cmd.Flags().GetString("http")
		failFast, _ := cmd.Flags().GetBool("fail-fast")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err := cli.Execute(ctx, cli.RunOptions{
			ConfigPath: configPath(cmd, args),
			LogLevel:   logLevel,
			LogFile:    logFile,
			HTTPAddr:   httpAddr,
			FailFast:   failFast,
			Quiet:      quiet,
			Output:     cmd.OutOrStdout(),
		})
		if sig := ctx.Signal(); sig != nil && !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "stopped by %v\n", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().String("log-file", "", "Also write JSON logs to this file")
	runCmd.Flags().String("http", "", "Serve the status API and /metrics on this address (e.g. :8080)")
	runCmd.Flags().Bool("fail-fast", false, "Stop every container when one fails")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner and summary")
}
