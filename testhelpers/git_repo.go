package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRepo is a real git repository used by tests
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new git repository in the given directory
func NewGitRepo(dir string) (*GitRepo, error) {
	repo := &GitRepo{Dir: dir}

	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	if err := repo.runGit("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.runGit("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *GitRepo) runGit(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if os.Getenv("DEBUG") != "" {
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func (r *GitRepo) runGitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Git runs a git command in the repository
func (r *GitRepo) Git(args ...string) error {
	return r.runGit(args...)
}

// GitOutput runs a git command and returns its trimmed output
func (r *GitRepo) GitOutput(args ...string) (string, error) {
	return r.runGitOutput(args...)
}

// WriteFile writes a file in the working tree and stages it
func (r *GitRepo) WriteFile(name, content string) error {
	path := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return err
	}
	return r.runGit("add", name)
}

// CommitChange writes a file named after the change and commits it with the
// given message
func (r *GitRepo) CommitChange(message, name string) error {
	if err := r.WriteFile(name+".txt", message); err != nil {
		return err
	}
	return r.runGit("commit", "-m", message)
}

// CommitWithMessage writes a change and commits with a full, possibly
// multi-line message
func (r *GitRepo) CommitWithMessage(name, message string) error {
	if err := r.WriteFile(name+".txt", name); err != nil {
		return err
	}
	cmd := exec.Command("git", "commit", "-F", "-")
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	cmd.Stdin = strings.NewReader(message)
	return cmd.Run()
}

// AmendChange changes the working tree and amends the last commit without
// touching its message
func (r *GitRepo) AmendChange(name, content string) error {
	if err := r.WriteFile(name+".txt", content); err != nil {
		return err
	}
	return r.runGit("commit", "--amend", "--no-edit")
}

// CreateAndCheckoutBranch creates and checks out a new branch
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.runGit("checkout", "-b", name)
}

// CheckoutBranch checks out a branch
func (r *GitRepo) CheckoutBranch(name string) error {
	return r.runGit("checkout", name)
}

// MergeBranch merges a branch into the current one, creating a merge commit
func (r *GitRepo) MergeBranch(name string) error {
	return r.runGit("merge", "--no-ff", name)
}

// GetRevision returns the SHA of a revision
func (r *GitRepo) GetRevision(rev string) (string, error) {
	return r.runGitOutput("rev-parse", rev)
}

// CommitMessage returns the full message of a commit
func (r *GitRepo) CommitMessage(rev string) (string, error) {
	return r.runGitOutput("log", "-1", "--format=%B", rev)
}

// CreateBareRemote creates a bare repository and adds it as a remote.
// Returns the path to the bare repository.
func (r *GitRepo) CreateBareRemote(name string) (string, error) {
	bareDir := r.Dir + "-" + name + ".git"

	cmd := exec.Command("git", "init", "--bare", bareDir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to create bare repo: %w", err)
	}

	if err := r.runGit("remote", "add", name, bareDir); err != nil {
		return "", fmt.Errorf("failed to add remote: %w", err)
	}
	return bareDir, nil
}

// PushBranch pushes a branch to a remote
func (r *GitRepo) PushBranch(remote, branch string) error {
	return r.runGit("push", "-u", remote, branch)
}
