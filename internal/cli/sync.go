package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/engine"
	"stackpr.dev/stackpr/internal/output"
	"stackpr.dev/stackpr/internal/runtime"
)

// newSyncCmd creates the sync command
func newSyncCmd(verbose *bool) *cobra.Command {
	var draft bool

	cmd := &cobra.Command{
		Use:          "sync",
		Aliases:      []string{"s", "submit"},
		Short:        "Push the stack and create or update one pull request per commit",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtime.GetContext(cmd.Context(), *verbose)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.Engine.Draft = draft
			report, err := rt.Engine.Sync(cmd.Context())
			if err != nil {
				return err
			}

			rt.Splog.Page(rt.Splog.RenderStack(syncRows(report)))

			if report.Failed() {
				return fmt.Errorf("some entries did not sync, see above")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&draft, "draft", false, "Create new pull requests as drafts")

	return cmd
}

func syncRows(report *engine.SyncReport) []output.StackRow {
	rows := make([]output.StackRow, len(report.Entries))
	for i, e := range report.Entries {
		rows[i] = output.StackRow{
			Title:    e.Title,
			PRNumber: e.PRNumber,
			State:    e.Outcome,
			Failed:   e.Err != nil,
			Warned:   e.Diverged,
		}
		if e.Err != nil {
			rows[i].Detail = e.Err.Error()
		}
	}
	return rows
}
