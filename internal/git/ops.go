package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
)

// RebaseResult represents the result of a rebase operation
type RebaseResult int

const (
	// RebaseDone indicates the rebase was successful
	RebaseDone RebaseResult = iota
	// RebaseConflict indicates a conflict occurred during rebase
	RebaseConflict
)

// PushBranch pushes a commit to a remote branch ref. forceWithLease guards
// against overwriting remote changes we have not seen; a rejected push
// surfaces as NonFastForward so the user can rebase instead of losing
// someone else's work.
func (r *Repo) PushBranch(ctx context.Context, remote, branch, sha string, forceWithLease bool) error {
	args := []string{"push"}
	if forceWithLease {
		args = append(args, fmt.Sprintf("--force-with-lease=refs/heads/%s", branch))
	}
	args = append(args, remote, fmt.Sprintf("%s:refs/heads/%s", sha, branch))

	_, err := r.runner.Run(ctx, args...)
	if err != nil {
		var cmdErr *stackprerrors.GitCommandError
		if errors.As(err, &cmdErr) {
			out := cmdErr.Stderr + cmdErr.Stdout
			if strings.Contains(out, "stale info") || strings.Contains(out, "[rejected]") || strings.Contains(out, "non-fast-forward") {
				return fmt.Errorf("push of %s rejected, remote has changes we have not seen: %w", branch, stackprerrors.ErrNonFastForward)
			}
		}
		return fmt.Errorf("failed to push branch %s: %w", branch, err)
	}
	return nil
}

// FetchRemote fetches a single branch from a remote
func (r *Repo) FetchRemote(ctx context.Context, remote, branch string) error {
	_, err := r.runner.Run(ctx, "fetch", remote, branch)
	if err != nil {
		return fmt.Errorf("failed to fetch %s/%s: %w", remote, branch, err)
	}
	return nil
}

// RemoteSha returns the SHA of a remote-tracking branch
func (r *Repo) RemoteSha(ctx context.Context, remote, branch string) (string, error) {
	return r.runner.Run(ctx, "rev-parse", fmt.Sprintf("%s/%s", remote, branch))
}

// ResolveSha resolves a revision to a full SHA
func (r *Repo) ResolveSha(ctx context.Context, rev string) (string, error) {
	return r.runner.Run(ctx, "rev-parse", rev)
}

// UpdateRef points a ref at a revision
func (r *Repo) UpdateRef(ctx context.Context, ref, sha string) error {
	_, err := r.runner.Run(ctx, "update-ref", ref, sha)
	if err != nil {
		return fmt.Errorf("failed to update ref %s: %w", ref, err)
	}
	return nil
}

// UpdateBranchRef points a local branch at a revision
func (r *Repo) UpdateBranchRef(ctx context.Context, branch, sha string) error {
	return r.UpdateRef(ctx, "refs/heads/"+branch, sha)
}

// IsAncestor checks if one revision is an ancestor of another
func (r *Repo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	_, err := r.runner.Run(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// RebaseOnto rebases a branch onto a new base, replaying only the commits
// after oldBase. Used for the land cascade: after the bottom commit merges,
// the remainder of the stack moves onto the freshly updated target.
func (r *Repo) RebaseOnto(ctx context.Context, onto, oldBase, branch string) (RebaseResult, error) {
	branchRev, err := r.runner.Run(ctx, "rev-parse", branch)
	if err != nil {
		return RebaseConflict, fmt.Errorf("failed to get revision for %s: %w", branch, err)
	}

	currentBranch, _ := r.CurrentBranch()

	// Rebase a detached HEAD so the branch ref only moves on success.
	_, err = r.runner.Run(ctx, "rebase", "--onto", onto, oldBase, branchRev)
	if err != nil {
		if r.isRebaseInProgress(ctx) {
			_, _ = r.runner.Run(ctx, "rebase", "--abort")
		}
		if currentBranch != "" {
			_, _ = r.runner.Run(ctx, "checkout", currentBranch)
		}
		return RebaseConflict, nil
	}

	newRev, err := r.runner.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return RebaseConflict, fmt.Errorf("failed to get revision after rebase: %w", err)
	}

	if err := r.UpdateBranchRef(ctx, branch, newRev); err != nil {
		return RebaseConflict, err
	}

	if currentBranch != "" {
		if _, err := r.runner.Run(ctx, "checkout", currentBranch); err != nil {
			return RebaseConflict, fmt.Errorf("failed to return to %s: %w", currentBranch, err)
		}
	}

	return RebaseDone, nil
}

func (r *Repo) isRebaseInProgress(ctx context.Context) bool {
	gitDir, err := r.runner.Run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return false
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(r.root, gitDir)
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-merge")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-apply")); err == nil {
		return true
	}
	return false
}
