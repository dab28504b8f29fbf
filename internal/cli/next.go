package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskcard/internal/core"
)

// lineDisplay prints one line per rendered view. Its regions always exist.
type lineDisplay struct {
	w     io.Writer
	title string
	body  string
}

func (d *lineDisplay) Regions() (core.Regions, bool) {
	return d, true
}

func (d *lineDisplay) SetTitle(text string) { d.title = text }
func (d *lineDisplay) SetBody(text string)  { d.body = text }

// SetTriggerEnabled is the last region a render writes, so the line is
// flushed here.
func (d *lineDisplay) SetTriggerEnabled(enabled bool) {
	line := d.title
	if d.body != "" {
		line += ": " + d.body
	}
	if !enabled {
		line += " ..."
	}
	fmt.Fprintln(d.w, line)
}

var nextJSON bool

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Fetch the next task and print it",
	Long: `Fetch the next task from the task API without the interactive card.

Every state the request passes through is printed on its own line. The task
id comes from the persisted counter, so repeated invocations walk through the
remote task list. With --json only the final state is printed, as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewWorkflow == nil {
			return fmt.Errorf("workflow not initialized")
		}

		var renderer core.Renderer
		if !nextJSON {
			renderer = core.NewViewBinder(&lineDisplay{w: cmd.OutOrStdout()}, Reporter)
		}
		wf := NewWorkflow(renderer)

		snap, err := wf.RequestNextTask(context.Background())
		if err != nil {
			return fmt.Errorf("requesting next task: %w", err)
		}

		if nextJSON {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting state as JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}
		return nil
	},
}

func init() {
	nextCmd.Flags().BoolVar(&nextJSON, "json", false, "Print the final state as JSON")
	rootCmd.AddCommand(nextCmd)
}
