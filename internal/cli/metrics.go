package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display task fetch and state metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include fetch counts and success rate, average fetch time, state
transitions by target state, fallback reads of the stored state and the last
task requested.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		// Table format.
		fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Initializations:", metrics.Initializations)
		fmt.Fprintf(out, "  %-24s %d\n", "Fetches started:", metrics.FetchesStarted)
		fmt.Fprintf(out, "  %-24s %d\n", "Fetches succeeded:", metrics.FetchesSucceeded)
		fmt.Fprintf(out, "  %-24s %d\n", "Fetches failed:", metrics.FetchesFailed)
		fmt.Fprintf(out, "  %-24s %.0f%%\n", "Success rate:", metrics.SuccessRate*100)
		fmt.Fprintf(out, "  %-24s %.0fms\n", "Average fetch time:", metrics.AvgFetchMillis)
		fmt.Fprintf(out, "  %-24s %d\n", "Fallback reads:", metrics.FallbackReads)
		fmt.Fprintf(out, "  %-24s %d\n", "State clears:", metrics.Clears)
		if metrics.LastTaskID != nil {
			fmt.Fprintf(out, "  %-24s %d\n", "Last task id:", *metrics.LastTaskID)
		}
		if metrics.LastError != "" {
			fmt.Fprintf(out, "  %-24s %s\n", "Last fetch error:", metrics.LastError)
		}

		if len(metrics.Transitions) > 0 {
			fmt.Fprintln(out, "\n  Transitions:")
			for _, state := range models.AppStates {
				if count, ok := metrics.Transitions[string(state)]; ok {
					fmt.Fprintf(out, "    %-20s %d\n", string(state)+":", count)
				}
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Fprintf(out, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	_ = metricsCmd.RegisterFlagCompletionFunc("since", completeSince)
	rootCmd.AddCommand(metricsCmd)
}
