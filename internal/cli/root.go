package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// metricsAddr is the --metrics-addr flag shared by the long-running commands.
var metricsAddr string

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "taskcard",
	Short: "taskcard - one task at a time from a task API",
	Long: `taskcard shows one task card at a time. Pressing the trigger fetches the
next task from the configured task API and moves the card through the
start, fetchingTask, gotTask and error states.

The current state is persisted in a slot (memory, file or sqlite) so that
other taskcard processes, such as "taskcard next" or the MCP server, see and
change the same card.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "taskcard %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

// startMetricsServer serves /metrics when --metrics-addr is set. It stops when
// ctx is cancelled.
func startMetricsServer(ctx context.Context, cmd *cobra.Command) error {
	if metricsAddr == "" {
		return nil
	}
	if Recorder == nil {
		return fmt.Errorf("metrics recorder not initialized")
	}
	addr, err := Recorder.ServeMetrics(ctx, metricsAddr, Logger)
	if err != nil {
		return fmt.Errorf("starting metrics server: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "metrics on http://%s/metrics\n", addr)
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
