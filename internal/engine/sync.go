package engine

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"stackpr.dev/stackpr/internal/config"
	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/output"
	"stackpr.dev/stackpr/internal/stack"
)

// GitOps is the subset of local git operations the engine drives
type GitOps interface {
	PushBranch(ctx context.Context, remote, branch, sha string, forceWithLease bool) error
	FetchRemote(ctx context.Context, remote, branch string) error
	RemoteSha(ctx context.Context, remote, branch string) (string, error)
	UpdateBranchRef(ctx context.Context, branch, sha string) error
	RebaseOnto(ctx context.Context, onto, oldBase, branch string) (git.RebaseResult, error)
	RewriteMessages(ctx context.Context, branch string, rewrites []git.MessageRewrite) (map[string]string, error)
}

// Engine runs the synchronization pipeline: walk the stack, fetch the
// remote snapshot, plan, execute, write metadata back. One engine is built
// per invocation.
type Engine struct {
	repo   *git.Repo
	gitOps GitOps
	forge  github.Client
	cfg    *config.RepoConfig
	log    *output.Splog

	// Draft makes newly created PRs drafts
	Draft bool

	// seams for tests
	loadEntries func(ctx context.Context) ([]*stack.Entry, string, error)
	acquireLock func(ctx context.Context) (func(), error)
}

// New creates an engine bound to a repository and forge client
func New(repo *git.Repo, forge github.Client, cfg *config.RepoConfig, log *output.Splog) *Engine {
	e := &Engine{
		repo:   repo,
		gitOps: repo,
		forge:  forge,
		cfg:    cfg,
		log:    log,
	}
	e.loadEntries = e.defaultLoadEntries
	e.acquireLock = e.defaultAcquireLock
	return e
}

// EntryReport is the per-entry outcome of a sync
type EntryReport struct {
	Index    int
	Title    string
	PRNumber int
	Change   stack.ChangeKind
	Outcome  string
	Diverged bool
	Err      error
}

// SyncReport summarizes one sync run
type SyncReport struct {
	Branch  string
	Entries []EntryReport
	Plan    *Plan
	Exec    *ExecResult
}

// Failed reports whether any entry's operations failed
func (r *SyncReport) Failed() bool {
	for _, e := range r.Entries {
		if e.Err != nil {
			return true
		}
	}
	return false
}

// Sync runs the full pipeline under the repository lock
func (e *Engine) Sync(ctx context.Context) (*SyncReport, error) {
	release, err := e.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	return e.syncLocked(ctx)
}

func (e *Engine) syncLocked(ctx context.Context) (*SyncReport, error) {
	entries, branch, err := e.loadEntries(ctx)
	if err != nil {
		return nil, err
	}
	report := &SyncReport{Branch: branch}
	if len(entries) == 0 {
		e.log.Info("stack is empty, nothing to sync")
		return report, nil
	}

	// Mint stable IDs for commits entering the stack. The IDs only reach
	// the commit messages in the write-back below, after their branches
	// and PRs exist.
	for _, entry := range entries {
		if entry.Meta == nil {
			entry.Meta = &stack.Metadata{CommitID: stack.NewCommitID()}
		}
	}

	var numbers []int
	for _, entry := range entries {
		if n := entry.PRNumber(); n > 0 {
			numbers = append(numbers, n)
		}
	}

	e.log.Debug("fetching remote state for %d PRs", len(numbers))
	snapshot, err := github.FetchSnapshot(ctx, e.forge, numbers)
	if err != nil {
		return nil, err
	}
	e.linkRemote(entries, snapshot)

	plan := BuildPlan(PlanRequest{
		Entries:      entries,
		Remote:       snapshot,
		TargetBranch: e.cfg.GetTargetBranch(),
		BranchPrefix: e.cfg.GetBranchPrefix(),
	})
	report.Plan = plan

	for _, d := range plan.Diverged {
		e.log.Warn("%s; resolve it before this entry syncs again", d.Reason)
	}

	executor := NewExecutor(e.gitOps, e.forge, e.cfg.GetRemote())
	executor.Draft = e.Draft || e.cfg.GetDraft()
	exec := executor.Execute(ctx, plan)
	report.Exec = exec

	if err := e.writeBackMetadata(ctx, branch, entries, exec); err != nil {
		return nil, err
	}

	report.Entries = summarize(entries, plan, exec)
	return report, nil
}

// linkRemote attaches the remote snapshot to the tracked entries
func (e *Engine) linkRemote(entries []*stack.Entry, snapshot map[int]*github.RemotePR) {
	prefix := e.cfg.GetBranchPrefix()
	for _, entry := range entries {
		n := entry.PRNumber()
		if n == 0 {
			continue
		}
		ref := &stack.PullRequestRef{
			Number:     n,
			HeadBranch: stack.HeadBranchName(prefix, entry.Meta.CommitID),
			SyncHash:   entry.Meta.SyncHash,
			Status:     stack.PRStatusUnknown,
		}
		if remote := snapshot[n]; remote != nil {
			ref.BaseBranch = remote.Base
			ref.Status = stack.PRStatus(remote.State)
		}
		entry.PR = ref
	}
}

// writeBackMetadata amends the stack's commit messages with their trailer
// blocks in a single chain rewrite. Sync hashes are the pre-amend content
// hashes, which stay valid because the trailer never feeds the hash.
func (e *Engine) writeBackMetadata(ctx context.Context, branch string, entries []*stack.Entry, exec *ExecResult) error {
	succeeded := entrySuccess(entries, exec)
	for _, entry := range entries {
		if succeeded[entry.Index] && entry.Change != stack.ChangeUnchanged {
			entry.Meta.SyncHash = entry.ContentHash
		}
	}

	// Rewrites must cover the contiguous range from the first commit whose
	// message changes through the tip; everything above moves anyway once
	// a parent moves.
	first := -1
	for _, entry := range entries {
		if stack.FormatMessage(entry.Message, entry.Meta) != entry.Message {
			first = entry.Index
			break
		}
	}
	if first < 0 {
		return nil
	}

	var rewrites []git.MessageRewrite
	for _, entry := range entries[first:] {
		rewrites = append(rewrites, git.MessageRewrite{
			SHA:        entry.SHA,
			NewMessage: stack.FormatMessage(entry.Message, entry.Meta),
		})
	}

	e.log.Debug("writing metadata for %d commits", len(rewrites))
	if _, err := e.gitOps.RewriteMessages(ctx, branch, rewrites); err != nil {
		return fmt.Errorf("failed to write stack metadata: %w", err)
	}
	return nil
}

// entrySuccess reports, per entry index, whether every effective operation
// for that entry completed
func entrySuccess(entries []*stack.Entry, exec *ExecResult) map[int]bool {
	succeeded := make(map[int]bool, len(entries))
	for _, entry := range entries {
		succeeded[entry.Index] = true
	}
	for _, res := range exec.Results {
		if res.Op.Entry == nil {
			continue
		}
		switch res.Status {
		case OpDone, OpNoop:
		default:
			succeeded[res.Op.Entry.Index] = false
		}
	}
	return succeeded
}

func summarize(entries []*stack.Entry, plan *Plan, exec *ExecResult) []EntryReport {
	diverged := make(map[int]string, len(plan.Diverged))
	for _, d := range plan.Diverged {
		diverged[d.EntryIndex] = d.Reason
	}

	reports := make([]EntryReport, len(entries))
	for i, entry := range entries {
		reports[i] = EntryReport{
			Index:    entry.Index,
			Title:    entry.Title(),
			PRNumber: entry.PRNumber(),
			Change:   entry.Change,
			Outcome:  "unchanged",
		}
		if reason, ok := diverged[entry.Index]; ok {
			reports[i].Diverged = true
			reports[i].Outcome = reason
		}
	}

	for _, res := range exec.Results {
		if res.Op.Entry == nil {
			continue
		}
		r := &reports[res.Op.Entry.Index]
		switch res.Status {
		case OpFailed:
			r.Outcome = fmt.Sprintf("%s failed", res.Op.Kind)
			if r.Err == nil {
				r.Err = res.Err
			}
		case OpSkippedDependency:
			if r.Err == nil {
				r.Outcome = "skipped, an earlier entry failed"
				r.Err = fmt.Errorf("dependency operation failed")
			}
		case OpDone:
			if r.Err != nil {
				break
			}
			if res.Op.Kind == OpCreate && res.Created != nil {
				r.Outcome = fmt.Sprintf("created #%d", res.Created.Number)
				r.PRNumber = res.Created.Number
			} else if r.Outcome == "unchanged" {
				r.Outcome = "updated"
			}
		case OpNotRun:
			if res.Op.Kind != OpSkip && r.Err == nil {
				r.Outcome = "not run"
			}
		}
	}

	return reports
}

func (e *Engine) defaultAcquireLock(ctx context.Context) (func(), error) {
	lock, err := e.repo.AcquireLock(ctx)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// defaultLoadEntries walks HEAD down to the target branch. The remote
// tracking ref is preferred as the base so freshly landed commits are not
// mistaken for stack entries.
func (e *Engine) defaultLoadEntries(ctx context.Context) ([]*stack.Entry, string, error) {
	branch, err := e.repo.CurrentBranch()
	if err != nil {
		return nil, "", err
	}

	target := e.cfg.GetTargetBranch()
	remote := e.cfg.GetRemote()

	base, err := e.repo.GoGit().ResolveRevision(plumbing.Revision("refs/remotes/" + remote + "/" + target))
	if err != nil {
		base, err = e.repo.GoGit().ResolveRevision(plumbing.Revision("refs/heads/" + target))
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve target branch %q: %w", target, err)
		}
	}
	tip, err := e.repo.GoGit().ResolveRevision(plumbing.Revision("HEAD"))
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	entries, err := stack.Walk(e.repo.GoGit(), *base, *tip)
	if err != nil {
		return nil, "", err
	}
	return entries, branch, nil
}
