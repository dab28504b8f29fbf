package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	tcmcp "github.com/valter-silva-au/taskcard/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the taskcard MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskcard MCP server on stdio",
	Long: `Start the taskcard MCP server on stdio transport.

The server exposes the task card as MCP tools that AI coding assistants can
call: get_state, request_next_task, reset_state, get_metrics, get_alerts.
State changes made through the tools are persisted in the same slot the card
reads.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewWorkflow == nil {
			return fmt.Errorf("workflow not initialized")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := startMetricsServer(ctx, cmd); err != nil {
			return err
		}

		srv := tcmcp.NewServer(NewWorkflow(nil), MetricsCalc, AlertEngine, appVersion)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpServeCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
