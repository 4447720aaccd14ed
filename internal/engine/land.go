package engine

import (
	"context"
	"fmt"

	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/stack"
)

// LandOptions controls a land run
type LandOptions struct {
	// All keeps landing until no entry is ready, instead of stopping after
	// the bottom one
	All bool
}

// LandEntry is the final land state of one remaining stack entry
type LandEntry struct {
	Title    string
	PRNumber int
	State    LandState
	Reason   string
}

// LandReport summarizes a land run
type LandReport struct {
	// Merged lists the PR numbers landed, in merge order
	Merged []int
	// Entries holds the final state of the entries still on the stack
	Entries []LandEntry
	// Sync is the report of the last pipeline run
	Sync *SyncReport
}

// Land merges ready entries from the bottom of the stack. Each iteration
// syncs the stack, evaluates the bottom entry, merges it, then rebases the
// remainder onto the advanced target. A merge failure stops the run and
// leaves everything else untouched.
func (e *Engine) Land(ctx context.Context, opts LandOptions) (*LandReport, error) {
	release, err := e.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	report := &LandReport{}

	for {
		sync, err := e.syncLocked(ctx)
		if err != nil {
			return report, err
		}
		report.Sync = sync
		if sync.Failed() {
			return report, fmt.Errorf("sync did not complete cleanly, fix the reported entries and rerun")
		}

		entries, branch, err := e.loadEntries(ctx)
		if err != nil {
			return report, err
		}
		if len(entries) == 0 {
			return report, nil
		}

		bottom := entries[0]
		state, reason := e.evalBottom(ctx, bottom)
		if state != LandReady {
			report.Entries = landStates(entries, state, reason)
			return report, nil
		}

		number := bottom.PRNumber()
		e.log.Info("merging #%d %s", number, bottom.Title())
		if err := e.forge.MergePullRequest(ctx, number); err != nil {
			report.Entries = landStates(entries, LandMergeFailed, err.Error())
			return report, err
		}
		report.Merged = append(report.Merged, number)
		e.log.Info("landed #%d", number)

		if err := e.cascade(ctx, bottom, branch); err != nil {
			return report, err
		}

		if !opts.All {
			// One more pipeline run repoints the remaining PRs at the
			// advanced target before reporting.
			sync, err := e.syncLocked(ctx)
			if err != nil {
				return report, err
			}
			report.Sync = sync
			entries, _, err := e.loadEntries(ctx)
			if err != nil {
				return report, err
			}
			report.Entries = landStates(entries, LandPending, "waiting for entries below")
			return report, nil
		}
	}
}

// evalBottom decides whether the bottommost entry is ready to merge: its PR
// must be open with checks passed
func (e *Engine) evalBottom(ctx context.Context, bottom *stack.Entry) (LandState, string) {
	number := bottom.PRNumber()
	if number == 0 {
		return LandPending, "entry has no pull request yet"
	}

	snapshot, err := github.FetchSnapshot(ctx, e.forge, []int{number})
	if err != nil {
		return LandPending, fmt.Sprintf("failed to fetch PR #%d: %v", number, err)
	}
	remote := snapshot[number]

	switch {
	case remote == nil || remote.State == github.PRStateMissing:
		return LandPending, fmt.Sprintf("PR #%d no longer exists", number)
	case remote.State == github.PRStateMerged:
		return LandPending, fmt.Sprintf("PR #%d was merged outside the stack", number)
	case remote.State == github.PRStateClosed:
		return LandPending, fmt.Sprintf("PR #%d is closed", number)
	}

	checks := remote.Checks
	switch {
	case checks == nil:
		return LandPending, "check status unavailable"
	case checks.Pending:
		return LandPending, "checks are still running"
	case !checks.Passing:
		return LandPending, "checks are failing"
	}

	return LandReady, ""
}

// cascade advances the local view of the target branch past the landed
// commit and rebases the remaining stack onto it
func (e *Engine) cascade(ctx context.Context, landed *stack.Entry, branch string) error {
	target := e.cfg.GetTargetBranch()
	remote := e.cfg.GetRemote()

	if err := e.gitOps.FetchRemote(ctx, remote, target); err != nil {
		return err
	}
	newSha, err := e.gitOps.RemoteSha(ctx, remote, target)
	if err != nil {
		return err
	}
	if branch != target {
		if err := e.gitOps.UpdateBranchRef(ctx, target, newSha); err != nil {
			return err
		}
	}

	result, err := e.gitOps.RebaseOnto(ctx, newSha, landed.SHA, branch)
	if err != nil {
		return err
	}
	if result == git.RebaseConflict {
		return fmt.Errorf("rebase onto %s hit conflicts after landing, resolve them and rerun", target)
	}
	return nil
}

func landStates(entries []*stack.Entry, bottomState LandState, bottomReason string) []LandEntry {
	states := make([]LandEntry, len(entries))
	for i, entry := range entries {
		states[i] = LandEntry{
			Title:    entry.Title(),
			PRNumber: entry.PRNumber(),
			State:    LandPending,
			Reason:   "waiting for entries below",
		}
	}
	if len(states) > 0 {
		states[0].State = bottomState
		states[0].Reason = bottomReason
	}
	return states
}
