package engine

import (
	"fmt"

	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/stack"
)

// PlanRequest carries everything the planner needs. Planning is a pure
// function of the local stack and the remote snapshot; it performs no IO,
// which is what makes it testable without a network.
type PlanRequest struct {
	Entries      []*stack.Entry
	Remote       map[int]*github.RemotePR
	TargetBranch string
	BranchPrefix string
}

// BuildPlan compares each stack entry against the remote snapshot and emits
// the operations needed to converge, ordered bottom-to-top with explicit
// dependency edges. Entries whose remote PR changed out-of-band are reported
// as diverged and receive no operations.
func BuildPlan(req PlanRequest) *Plan {
	plan := &Plan{}

	knownBases := map[string]bool{req.TargetBranch: true}
	for _, e := range req.Entries {
		if e.Meta != nil {
			knownBases[stack.HeadBranchName(req.BranchPrefix, e.Meta.CommitID)] = true
		}
	}

	addOp := func(op Operation) int {
		op.ID = len(plan.Ops)
		plan.Ops = append(plan.Ops, op)
		return op.ID
	}

	// prevBranchOps are the ops that materialize the previous entry's head
	// branch; the next entry's create and base repoint wait on them.
	var prevBranchOps []int
	requiredBase := req.TargetBranch

	for _, e := range req.Entries {
		if e.Meta == nil {
			// The sync pipeline mints commit IDs before planning; an entry
			// without one cannot be given a branch, so report and move on.
			addOp(Operation{Kind: OpSkip, Entry: e, Reason: "commit has no stack id"})
			prevBranchOps = nil
			continue
		}

		head := stack.HeadBranchName(req.BranchPrefix, e.Meta.CommitID)

		var remote *github.RemotePR
		if n := e.PRNumber(); n > 0 {
			remote = req.Remote[n]
		}

		if reason := divergenceReason(remote, head, requiredBase, req.BranchPrefix, knownBases); reason != "" {
			plan.Diverged = append(plan.Diverged, DivergedEntry{
				EntryIndex: e.Index,
				PRNumber:   e.PRNumber(),
				Reason:     reason,
			})
			addOp(Operation{Kind: OpSkip, Entry: e, Reason: reason})
			// The diverged entry's branch still anchors the chain; entries
			// above keep their base but have nothing new to wait on.
			prevBranchOps = nil
			requiredBase = head
			continue
		}

		title := e.Title()
		body := RenderBody(e, req.Entries)
		changed := e.Change == stack.ChangeNew || e.Change == stack.ChangeModified

		var myBranchOps []int
		scheduled := false

		needsCreate := remote == nil || remote.State == github.PRStateMissing
		if needsCreate {
			createID := addOp(Operation{
				Kind:       OpCreate,
				Entry:      e,
				HeadBranch: head,
				BaseBranch: requiredBase,
				Title:      title,
				Body:       body,
				DependsOn:  prevBranchOps,
			})
			pushID := addOp(Operation{
				Kind:       OpUpdateBranch,
				Entry:      e,
				HeadBranch: head,
				DependsOn:  []int{createID},
			})
			myBranchOps = []int{createID, pushID}
			scheduled = true
		} else {
			if changed {
				pushID := addOp(Operation{
					Kind:       OpUpdateBranch,
					Entry:      e,
					HeadBranch: head,
					DependsOn:  prevBranchOps,
				})
				myBranchOps = append(myBranchOps, pushID)
				scheduled = true
			}
			if remote.Base != requiredBase {
				addOp(Operation{
					Kind:       OpUpdateBase,
					Entry:      e,
					HeadBranch: head,
					BaseBranch: requiredBase,
					PRNumber:   remote.Number,
					DependsOn:  prevBranchOps,
				})
				scheduled = true
			}
			// Only the generated stack section is refreshed; edits the
			// user made to the rest of the description stay theirs.
			desired := RefreshBody(remote.Body, e, req.Entries)
			if remote.Title != title || remote.Body != desired {
				addOp(Operation{
					Kind:     OpUpdateDescription,
					Entry:    e,
					PRNumber: remote.Number,
					Title:    title,
					Body:     desired,
				})
				scheduled = true
			}
		}

		if !scheduled {
			addOp(Operation{Kind: OpSkip, Entry: e, Reason: "up to date"})
		}

		prevBranchOps = myBranchOps
		requiredBase = head
	}

	return plan
}

// divergenceReason decides whether a remote PR drifted out from under the
// tool. A missing PR is not divergence: it gets re-created. A base pointing
// at a branch the stack knows nothing about means someone repointed it by
// hand, and the entry is left alone until the user resolves it. Bases that
// look like generated head branches stay ours: after a land the branch
// below has left the stack but the PR above still points at it.
func divergenceReason(remote *github.RemotePR, head, requiredBase, prefix string, knownBases map[string]bool) string {
	if remote == nil || remote.State == github.PRStateMissing {
		return ""
	}
	switch remote.State {
	case github.PRStateMerged:
		return fmt.Sprintf("PR #%d was merged outside the stack", remote.Number)
	case github.PRStateClosed:
		return fmt.Sprintf("PR #%d was closed outside the stack", remote.Number)
	}
	if remote.Head != "" && remote.Head != head {
		return fmt.Sprintf("PR #%d head branch changed to %s", remote.Number, remote.Head)
	}
	if remote.Base != requiredBase && !knownBases[remote.Base] && !stack.IsGeneratedBranch(prefix, remote.Base) {
		return fmt.Sprintf("PR #%d base branch changed to %s", remote.Number, remote.Base)
	}
	return ""
}
