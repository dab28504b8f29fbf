package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskcard/internal/core"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

var stateJSON bool

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and reset the stored application state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored state and the card it renders to",
	Long: `Show the stored application state.

A missing or unreadable slot is shown as the error state, exactly as the card
would show it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("state store not initialized")
		}

		snap := Store.Get()
		if stateJSON {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting state as JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

var stateInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config and reset the state to start",
	Long: `Write a starter .taskcard.yaml in the base path when none exists, then
clear the stored state and persist the start state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewWorkflow == nil {
			return fmt.Errorf("workflow not initialized")
		}

		if ConfigMgr != nil {
			path, err := ConfigMgr.WriteStarterConfig()
			if err != nil {
				return fmt.Errorf("writing starter config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n", path)
		}

		wf := NewWorkflow(nil)
		if err := wf.Init(); err != nil {
			return fmt.Errorf("initializing state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "State reset to start.")
		return nil
	},
}

var stateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("state store not initialized")
		}
		if !Store.Exists() {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored state.")
			return nil
		}
		if err := Store.Clear(); err != nil {
			return fmt.Errorf("clearing state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Stored state removed.")
		return nil
	},
}

func printSnapshot(w io.Writer, snap models.Snapshot) {
	v := core.RenderView(snap)

	fmt.Fprintf(w, "  %-10s %s\n", "State:", snap.AppState)
	fmt.Fprintf(w, "  %-10s %t\n", "Success:", snap.Success)
	if snap.ErrorMessage != "" {
		fmt.Fprintf(w, "  %-10s %s\n", "Error:", snap.ErrorMessage)
	}
	if !snap.CurrentTask.IsEmpty() {
		fmt.Fprintf(w, "  %-10s #%d %s\n", "Task:", snap.CurrentTask.ID, snap.CurrentTask.Title)
	}

	trigger := "enabled"
	if !v.TriggerEnabled {
		trigger = "disabled"
	}
	fmt.Fprintf(w, "\n  %s\n  %s\n  [%s: %s]\n", v.Title, v.Body, core.TriggerLabel, trigger)
}

func init() {
	stateShowCmd.Flags().BoolVar(&stateJSON, "json", false, "Output the state as JSON")
	stateCmd.AddCommand(stateShowCmd, stateInitCmd, stateClearCmd)
	rootCmd.AddCommand(stateCmd)
}
