// Package engine implements the stack synchronization core: reconciliation
// planning, ordered plan execution against the remote, and the land state
// machine that merges the stack bottom-up.
package engine

import (
	"fmt"

	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/stack"
)

// OpKind is the closed set of operation kinds in a reconciliation plan.
// Keeping the set closed lets the executor and the tests handle every kind
// exhaustively.
type OpKind int

const (
	// OpCreate creates a pull request (pushing the head branch first)
	OpCreate OpKind = iota
	// OpUpdateBranch pushes current commit content to the head branch
	OpUpdateBranch
	// OpUpdateBase repoints a PR's base branch
	OpUpdateBase
	// OpUpdateDescription refreshes a PR's title and description
	OpUpdateDescription
	// OpMerge merges a pull request
	OpMerge
	// OpSkip records that an entry needs nothing
	OpSkip
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdateBranch:
		return "update-branch"
	case OpUpdateBase:
		return "update-base"
	case OpUpdateDescription:
		return "update-description"
	case OpMerge:
		return "merge"
	case OpSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Operation is one step of a reconciliation plan
type Operation struct {
	// ID is the operation's index in the plan
	ID int

	Kind OpKind

	// Entry is the stack entry this operation targets
	Entry *stack.Entry

	// HeadBranch and BaseBranch name the remote refs involved
	HeadBranch string
	BaseBranch string

	// PRNumber is the pull request to update/merge, 0 for creates
	PRNumber int

	// Title and Body carry the desired PR description for
	// create/update-description operations
	Title string
	Body  string

	// DependsOn lists plan operation IDs that must succeed first. The
	// planner guarantees they are topologically ordered bottom-to-top.
	DependsOn []int

	// Reason explains skips
	Reason string
}

func (o Operation) String() string {
	if o.Entry != nil {
		return fmt.Sprintf("%s[%d:%s]", o.Kind, o.Entry.Index, o.Entry.Title())
	}
	return o.Kind.String()
}

// DivergedEntry records a stack entry excluded from automatic operations
// because its remote PR changed out-of-band
type DivergedEntry struct {
	EntryIndex int
	PRNumber   int
	Reason     string
}

// Plan is an ordered list of operations with explicit dependency edges
type Plan struct {
	Ops      []Operation
	Diverged []DivergedEntry
}

// IsNoop reports whether the plan contains no effective operations; a fully
// synced stack always produces a no-op plan, which makes reruns safe
func (p *Plan) IsNoop() bool {
	for _, op := range p.Ops {
		if op.Kind != OpSkip {
			return false
		}
	}
	return true
}

// OpStatus is the outcome of one executed operation
type OpStatus int

const (
	// OpNotRun means execution never reached the operation (cancellation)
	OpNotRun OpStatus = iota
	// OpDone means the operation completed successfully
	OpDone
	// OpFailed means the operation itself failed
	OpFailed
	// OpSkippedDependency means a dependency failed, so the operation was
	// never attempted
	OpSkippedDependency
	// OpNoop is the result of an OpSkip operation
	OpNoop
)

func (s OpStatus) String() string {
	switch s {
	case OpNotRun:
		return "not-run"
	case OpDone:
		return "done"
	case OpFailed:
		return "failed"
	case OpSkippedDependency:
		return "skipped-due-to-dependency"
	case OpNoop:
		return "noop"
	default:
		return "unknown"
	}
}

// OpResult is the per-operation outcome reported by the executor
type OpResult struct {
	Op     Operation
	Status OpStatus
	Err    error

	// FailedDependency names the operation whose failure blocked this one
	FailedDependency int

	// Created holds the remote PR returned by a successful create
	Created *github.RemotePR
}

// ExecResult is the full, ordered result list of a plan execution
type ExecResult struct {
	Results []OpResult
}

// Failed reports whether any operation failed
func (r *ExecResult) Failed() bool {
	for _, res := range r.Results {
		if res.Status == OpFailed {
			return true
		}
	}
	return false
}

// LandState is the per-entry state in the land engine
type LandState int

const (
	// LandPending means the entry is not yet eligible to merge
	LandPending LandState = iota
	// LandReady means the entry is fully synced with checks passed and is
	// the next merge candidate
	LandReady
	// LandMerging means the merge request is in flight
	LandMerging
	// LandLanded means the entry merged into the target branch
	LandLanded
	// LandMergeFailed means the remote refused the merge
	LandMergeFailed
)

func (s LandState) String() string {
	switch s {
	case LandPending:
		return "pending"
	case LandReady:
		return "ready"
	case LandMerging:
		return "merging"
	case LandLanded:
		return "landed"
	case LandMergeFailed:
		return "merge-failed"
	default:
		return "unknown"
	}
}
