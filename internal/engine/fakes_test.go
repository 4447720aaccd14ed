package engine

import (
	"context"
	"fmt"
	"sync"

	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/github"
)

// fakeGit implements BranchPusher and GitOps in memory
type fakeGit struct {
	mu         sync.Mutex
	pushed     []string
	failPush   map[string]error
	fetched    []string
	refs       map[string]string
	rebased    []string
	rebaseHook func()
	rewrites   int
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		failPush: map[string]error{},
		refs:     map[string]string{},
	}
}

func (f *fakeGit) PushBranch(_ context.Context, _, branch, sha string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failPush[branch]; err != nil {
		return err
	}
	f.pushed = append(f.pushed, branch)
	f.refs[branch] = sha
	return nil
}

func (f *fakeGit) FetchRemote(_ context.Context, remote, branch string) error {
	f.fetched = append(f.fetched, remote+"/"+branch)
	return nil
}

func (f *fakeGit) RemoteSha(_ context.Context, remote, branch string) (string, error) {
	return "sha-" + remote + "-" + branch, nil
}

func (f *fakeGit) UpdateBranchRef(_ context.Context, branch, sha string) error {
	f.refs[branch] = sha
	return nil
}

func (f *fakeGit) RebaseOnto(_ context.Context, onto, oldBase, branch string) (git.RebaseResult, error) {
	f.rebased = append(f.rebased, fmt.Sprintf("%s onto %s from %s", branch, onto, oldBase))
	if f.rebaseHook != nil {
		f.rebaseHook()
	}
	return git.RebaseDone, nil
}

func (f *fakeGit) RewriteMessages(_ context.Context, _ string, rewrites []git.MessageRewrite) (map[string]string, error) {
	f.rewrites++
	mapping := make(map[string]string, len(rewrites))
	for _, rw := range rewrites {
		mapping[rw.SHA] = rw.SHA + "'"
	}
	return mapping, nil
}

// fakeForge implements github.Client in memory
type fakeForge struct {
	mu         sync.Mutex
	remote     map[int]*github.RemotePR
	checks     map[int]*github.CheckStatus
	created    []github.CreatePROptions
	updated    map[int][]github.UpdatePROptions
	merged     []int
	nextNumber int
	failCreate error
	failMerge  map[int]error
	onUpdate   func()
}

func newFakeForge() *fakeForge {
	return &fakeForge{
		remote:     map[int]*github.RemotePR{},
		checks:     map[int]*github.CheckStatus{},
		updated:    map[int][]github.UpdatePROptions{},
		failMerge:  map[int]error{},
		nextNumber: 100,
	}
}

func (f *fakeForge) BatchGetPullRequests(_ context.Context, numbers []int) (map[int]*github.RemotePR, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[int]*github.RemotePR, len(numbers))
	for _, n := range numbers {
		if pr, ok := f.remote[n]; ok {
			copied := *pr
			result[n] = &copied
		} else {
			result[n] = &github.RemotePR{Number: n, State: github.PRStateMissing}
		}
	}
	return result, nil
}

func (f *fakeForge) GetChecksStatus(_ context.Context, number int) (*github.CheckStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.checks[number]; ok {
		return c, nil
	}
	return &github.CheckStatus{Passing: true}, nil
}

func (f *fakeForge) CreatePullRequest(_ context.Context, opts github.CreatePROptions) (*github.RemotePR, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.created = append(f.created, opts)
	f.nextNumber++
	pr := &github.RemotePR{
		Number: f.nextNumber,
		State:  github.PRStateOpen,
		Base:   opts.Base,
		Head:   opts.Head,
		Title:  opts.Title,
		Body:   opts.Body,
	}
	f.remote[pr.Number] = pr
	return pr, nil
}

func (f *fakeForge) UpdatePullRequest(_ context.Context, number int, opts github.UpdatePROptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onUpdate != nil {
		f.onUpdate()
	}
	f.updated[number] = append(f.updated[number], opts)
	if pr, ok := f.remote[number]; ok {
		if opts.Base != nil {
			pr.Base = *opts.Base
		}
		if opts.Title != nil {
			pr.Title = *opts.Title
		}
		if opts.Body != nil {
			pr.Body = *opts.Body
		}
	}
	return nil
}

func (f *fakeForge) MergePullRequest(_ context.Context, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failMerge[number]; err != nil {
		return err
	}
	f.merged = append(f.merged, number)
	if pr, ok := f.remote[number]; ok {
		pr.State = github.PRStateMerged
	}
	return nil
}

func (f *fakeForge) GetOwnerRepo() (string, string) {
	return "owner", "repo"
}
