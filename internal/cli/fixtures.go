package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskcard/internal/integration"
)

var (
	fixturesFile string
	fixturesAddr string
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Local task API commands",
}

var fixturesServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tasks from a YAML fixture file over HTTP",
	Long: `Serve a local task API so taskcard can run without a remote one.

Tasks are read from --file (a YAML document with a top-level "tasks" list)
or, without --file, from a built-in set starting at id 196. Point
api.base_url at the printed URL:

  TASKCARD_API_BASE_URL=http://127.0.0.1:8080/tasks taskcard run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fx := integration.DefaultTaskFixtures()
		if fixturesFile != "" {
			loaded, err := integration.LoadTaskFixtures(fixturesFile)
			if err != nil {
				return fmt.Errorf("loading fixtures: %w", err)
			}
			fx = loaded
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := startMetricsServer(ctx, cmd); err != nil {
			return err
		}

		ln, err := net.Listen("tcp", fixturesAddr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", fixturesAddr, err)
		}

		srv := &http.Server{
			Handler:           integration.NewFixtureHandler(fx, Logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Serving %d task(s) at http://%s/tasks\n", len(fx.Tasks), ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving fixtures: %w", err)
		}
		return nil
	},
}

func init() {
	fixturesServeCmd.Flags().StringVar(&fixturesFile, "file", "", "YAML fixture file (defaults to the built-in tasks)")
	fixturesServeCmd.Flags().StringVar(&fixturesAddr, "addr", "127.0.0.1:8080", "Address to listen on")
	fixturesServeCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	_ = fixturesServeCmd.RegisterFlagCompletionFunc("file", completeFixtureFiles)
	fixturesCmd.AddCommand(fixturesServeCmd)
	rootCmd.AddCommand(fixturesCmd)
}
