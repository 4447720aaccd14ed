package engine

import (
	"context"
	"sync"

	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/stack"
)

// BranchPusher is the git capability the executor needs
type BranchPusher interface {
	PushBranch(ctx context.Context, remote, branch, sha string, forceWithLease bool) error
}

// Executor runs a reconciliation plan against the remote. Failures are
// contained: a failed operation blocks only its dependents, everything
// independent still runs.
type Executor struct {
	git    BranchPusher
	forge  github.Client
	remote string

	// Draft makes newly created PRs drafts
	Draft bool
}

// NewExecutor creates an executor pushing to the given remote
func NewExecutor(git BranchPusher, forge github.Client, remote string) *Executor {
	return &Executor{git: git, forge: forge, remote: remote}
}

// Execute runs the plan in dependency order. Operations whose dependencies
// are all satisfied run in rounds; branch pushes within a round run
// concurrently, API mutations sequentially. Cancellation is honored between
// operations: everything not yet started stays in the not-run state.
func (x *Executor) Execute(ctx context.Context, plan *Plan) *ExecResult {
	results := make([]OpResult, len(plan.Ops))
	for i, op := range plan.Ops {
		results[i] = OpResult{Op: op, Status: OpNotRun, FailedDependency: -1}
	}

	for {
		if ctx.Err() != nil {
			break
		}

		progress := false
		var ready []int
		for i, op := range plan.Ops {
			if results[i].Status != OpNotRun {
				continue
			}
			if op.Kind == OpSkip {
				results[i].Status = OpNoop
				progress = true
				continue
			}
			blocked := -1
			waiting := false
			for _, dep := range op.DependsOn {
				switch results[dep].Status {
				case OpFailed, OpSkippedDependency:
					if blocked < 0 {
						blocked = dep
					}
				case OpNotRun:
					waiting = true
				}
			}
			if blocked >= 0 {
				results[i].Status = OpSkippedDependency
				results[i].FailedDependency = blocked
				progress = true
				continue
			}
			if !waiting {
				ready = append(ready, i)
			}
		}

		if len(ready) == 0 {
			if progress {
				continue
			}
			break
		}

		var pushes, serial []int
		for _, i := range ready {
			if plan.Ops[i].Kind == OpUpdateBranch {
				pushes = append(pushes, i)
			} else {
				serial = append(serial, i)
			}
		}

		for _, i := range serial {
			if ctx.Err() != nil {
				break
			}
			x.runOp(ctx, &results[i])
		}

		if ctx.Err() != nil {
			break
		}

		var wg sync.WaitGroup
		for _, i := range pushes {
			wg.Add(1)
			go func(res *OpResult) {
				defer wg.Done()
				x.runOp(ctx, res)
			}(&results[i])
		}
		wg.Wait()
	}

	return &ExecResult{Results: results}
}

func (x *Executor) runOp(ctx context.Context, res *OpResult) {
	op := res.Op

	var err error
	switch op.Kind {
	case OpCreate:
		err = x.create(ctx, res)
	case OpUpdateBranch:
		err = x.git.PushBranch(ctx, x.remote, op.HeadBranch, op.Entry.SHA, true)
	case OpUpdateBase:
		base := op.BaseBranch
		err = x.forge.UpdatePullRequest(ctx, op.PRNumber, github.UpdatePROptions{Base: &base})
	case OpUpdateDescription:
		title, body := op.Title, op.Body
		err = x.forge.UpdatePullRequest(ctx, op.PRNumber, github.UpdatePROptions{Title: &title, Body: &body})
	case OpMerge:
		err = x.forge.MergePullRequest(ctx, op.PRNumber)
	}

	if err != nil {
		res.Status = OpFailed
		res.Err = err
		return
	}
	res.Status = OpDone
}

// create pushes the head branch and opens the PR. The branch has to exist
// remotely before the PR referencing it can be created.
func (x *Executor) create(ctx context.Context, res *OpResult) error {
	op := res.Op

	if err := x.git.PushBranch(ctx, x.remote, op.HeadBranch, op.Entry.SHA, false); err != nil {
		return err
	}

	created, err := x.forge.CreatePullRequest(ctx, github.CreatePROptions{
		Title: op.Title,
		Body:  op.Body,
		Head:  op.HeadBranch,
		Base:  op.BaseBranch,
		Draft: x.Draft,
	})
	if err != nil {
		return err
	}

	res.Created = created
	// Record the number in-memory so the metadata write-back after the plan
	// persists it into the commit trailer.
	op.Entry.Meta.PRNumber = created.Number
	op.Entry.PR = &stack.PullRequestRef{
		Number:     created.Number,
		HeadBranch: op.HeadBranch,
		BaseBranch: op.BaseBranch,
		Status:     stack.PRStatusOpen,
	}
	return nil
}
