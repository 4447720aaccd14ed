package cli

import (
	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/engine"
	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/output"
	"stackpr.dev/stackpr/internal/runtime"
	"stackpr.dev/stackpr/internal/stack"
)

// newStatusCmd creates the status command
func newStatusCmd(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "status",
		Aliases:      []string{"st", "log"},
		Short:        "Show the stack and the state of its pull requests",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtime.GetContext(cmd.Context(), *verbose)
			if err != nil {
				return err
			}
			defer rt.Close()

			rows, err := rt.Engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				rt.Splog.Info("stack is empty")
				return nil
			}

			rt.Splog.Page(rt.Splog.RenderStack(statusRows(rows)))
			return nil
		},
	}

	return cmd
}

func statusRows(rows []engine.StatusRow) []output.StackRow {
	out := make([]output.StackRow, len(rows))
	for i, r := range rows {
		row := output.StackRow{
			Title:    r.Title,
			PRNumber: r.PRNumber,
			State:    r.Change.String(),
		}

		switch {
		case r.PRNumber == 0:
			row.Detail = "no PR yet"
			row.Warned = true
		case r.PRState == github.PRStateMissing:
			row.Detail = "PR missing"
			row.Failed = true
		case r.PRState != "" && r.PRState != github.PRStateOpen:
			row.Detail = string(r.PRState)
			row.Warned = true
		case r.Checks != nil && !r.Checks.Passing:
			row.Detail = "checks failing"
			row.Failed = true
		case r.Checks != nil && r.Checks.Pending:
			row.Detail = "checks running"
			row.Warned = true
		}

		if r.Change != stack.ChangeUnchanged {
			row.Warned = true
		}

		out[i] = row
	}
	return out
}
