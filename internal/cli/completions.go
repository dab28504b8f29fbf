package cli

import (
	"github.com/spf13/cobra"
)

// completeSince returns the common --since windows.
func completeSince(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"24h\tLast day",
		"7d\tLast week",
		"30d\tLast month",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeFixtureFiles restricts file completion to YAML documents.
func completeFixtureFiles(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}
