package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stackpr.dev/stackpr/internal/config"
	"stackpr.dev/stackpr/internal/output"
	"stackpr.dev/stackpr/internal/runtime"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var (
		targetBranch string
		remote       string
		branchPrefix string
	)

	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Initialize stackpr in the current repository",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, _, err := runtime.OpenRepo()
			if err != nil {
				return err
			}

			splog := output.NewSplog()

			if remote != "" {
				if _, err := repo.RemoteURL(remote); err != nil {
					return fmt.Errorf("remote %q not found: %w", remote, err)
				}
			}

			wasInitialized := config.IsInitialized(repo.Root())

			if targetBranch == "" {
				targetBranch = config.DefaultTargetBranch
			}
			cfg, err := config.Initialize(repo.Root(), targetBranch, remote, branchPrefix)
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			if wasInitialized {
				splog.Info("Reinitializing stackpr...")
			} else {
				splog.Info("Welcome to stackpr!")
			}
			splog.Info("Target branch set to %s on remote %s", cfg.GetTargetBranch(), cfg.GetRemote())
			return nil
		},
	}

	cmd.Flags().StringVar(&targetBranch, "target", "", "The branch the stack lands into (default \"main\")")
	cmd.Flags().StringVar(&remote, "remote", "", "The remote to push to (default \"origin\")")
	cmd.Flags().StringVar(&branchPrefix, "prefix", "", "Prefix for generated head branch names")

	return cmd
}
