package cli

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/engine"
	"stackpr.dev/stackpr/internal/output"
	"stackpr.dev/stackpr/internal/runtime"
)

// newLandCmd creates the land command
func newLandCmd(verbose *bool) *cobra.Command {
	var (
		all bool
		yes bool
	)

	cmd := &cobra.Command{
		Use:          "land",
		Short:        "Merge the bottom of the stack and rebase the rest on top",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtime.GetContext(cmd.Context(), *verbose)
			if err != nil {
				return err
			}
			defer rt.Close()

			if !yes {
				confirmed, err := confirmLand(all)
				if err != nil {
					return err
				}
				if !confirmed {
					rt.Splog.Info("Aborted")
					return nil
				}
			}

			report, landErr := rt.Engine.Land(cmd.Context(), engine.LandOptions{All: all})
			if report != nil {
				renderLandReport(rt.Splog, report)
			}
			return landErr
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Land every ready entry instead of only the bottom one")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func confirmLand(all bool) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, fmt.Errorf("refusing to land without confirmation; pass --yes in non-interactive use")
	}

	message := "Merge the bottom pull request of the stack?"
	if all {
		message = "Merge every ready pull request of the stack, bottom up?"
	}
	confirmed := false
	err := survey.AskOne(&survey.Confirm{Message: message}, &confirmed)
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

func renderLandReport(splog *output.Splog, report *engine.LandReport) {
	for _, n := range report.Merged {
		splog.Info("✓ landed #%d", n)
	}

	if len(report.Entries) == 0 {
		if len(report.Merged) > 0 {
			splog.Info("The whole stack has landed 🎉")
		}
		return
	}

	rows := make([]output.StackRow, len(report.Entries))
	for i, e := range report.Entries {
		rows[i] = output.StackRow{
			Title:    e.Title,
			PRNumber: e.PRNumber,
			State:    e.State.String(),
			Detail:   e.Reason,
			Failed:   e.State == engine.LandMergeFailed,
			Warned:   e.State == engine.LandPending,
		}
	}
	splog.Page(splog.RenderStack(rows))
}
