package git

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// Repo bundles go-git plumbing for reads with the exec runner for
// mutations. One Repo instance is created per invocation and passed
// explicitly through the pipeline.
type Repo struct {
	runner *CommandRunner
	gogit  *gogit.Repository
	root   string
}

// Open opens the repository containing path
func Open(path string) (*Repo, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	runner := NewCommandRunner(path)
	root, err := runner.Run(context.Background(), "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("failed to find repository root: %w", err)
	}

	return &Repo{
		runner: NewCommandRunner(root),
		gogit:  repo,
		root:   root,
	}, nil
}

// Root returns the repository's working tree root
func (r *Repo) Root() string {
	return r.root
}

// GoGit exposes the underlying go-git repository for object reads
func (r *Repo) GoGit() *gogit.Repository {
	return r.gogit
}

// Runner exposes the exec command runner
func (r *Repo) Runner() *CommandRunner {
	return r.runner
}

// CurrentBranch returns the current branch name
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.gogit.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not on a branch")
	}
	return head.Name().Short(), nil
}

// RemoteURL returns the fetch URL of a remote
func (r *Repo) RemoteURL(remote string) (string, error) {
	rem, err := r.gogit.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %q: %w", remote, err)
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", remote)
	}
	return urls[0], nil
}

// ParseOwnerRepo extracts the owner and repository name from a GitHub
// remote URL. Supports https and ssh forms.
func ParseOwnerRepo(url string) (owner, repo string, err error) {
	s := strings.TrimSuffix(url, ".git")
	switch {
	case strings.HasPrefix(s, "git@"):
		// git@github.com:owner/repo
		_, path, ok := strings.Cut(s, ":")
		if !ok {
			return "", "", fmt.Errorf("unrecognized remote URL %q", url)
		}
		s = path
	case strings.Contains(s, "://"):
		// https://github.com/owner/repo
		_, path, ok := strings.Cut(s, "://")
		if !ok {
			return "", "", fmt.Errorf("unrecognized remote URL %q", url)
		}
		parts := strings.SplitN(path, "/", 2)
		if len(parts) < 2 {
			return "", "", fmt.Errorf("unrecognized remote URL %q", url)
		}
		s = parts[1]
	}

	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("unrecognized remote URL %q", url)
	}
	return parts[0], parts[1], nil
}
