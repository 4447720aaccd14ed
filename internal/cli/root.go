// Package cli defines the stackpr command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "stackpr",
		Short: "Stackpr keeps a stack of local commits in sync with one GitHub pull request per commit",
		Long: `Stackpr keeps a linear stack of local commits in sync with GitHub:
each commit gets its own pull request, each pull request is based on the one
below it, and landing merges from the bottom up.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newSyncCmd(&verbose))
	rootCmd.AddCommand(newLandCmd(&verbose))
	rootCmd.AddCommand(newStatusCmd(&verbose))

	return rootCmd
}
