// Package runtime wires a command invocation together: repository, config,
// forge client, engine and logger, built once per run.
package runtime

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"stackpr.dev/stackpr/internal/config"
	"stackpr.dev/stackpr/internal/engine"
	"stackpr.dev/stackpr/internal/git"
	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/output"
)

// Context provides access to the engine and its collaborators for commands
type Context struct {
	Repo     *git.Repo
	Engine   *engine.Engine
	Splog    *output.Splog
	Config   *config.RepoConfig
	Forge    github.Client
	RepoRoot string

	debugLog io.Closer
}

// Close releases resources held for the invocation
func (c *Context) Close() {
	if c.debugLog != nil {
		_ = c.debugLog.Close()
	}
}

// OpenRepo opens the enclosing repository and its config without requiring
// stackpr to be initialized. Used by init itself.
func OpenRepo() (*git.Repo, *config.RepoConfig, error) {
	repo, err := git.Open(".")
	if err != nil {
		return nil, nil, fmt.Errorf("not a git repository: %w", err)
	}
	cfg, err := config.GetRepoConfig(repo.Root())
	if err != nil {
		return nil, nil, err
	}
	return repo, cfg, nil
}

// GetContext builds the full runtime context for a command. It requires an
// initialized repository and a GitHub token in the environment.
func GetContext(ctx context.Context, verbose bool) (*Context, error) {
	repo, cfg, err := OpenRepo()
	if err != nil {
		return nil, err
	}

	if !config.IsInitialized(repo.Root()) {
		return nil, fmt.Errorf("stackpr not initialized. Run 'stackpr init' first")
	}

	splog := output.NewSplog()
	splog.SetVerbose(verbose)
	debugLog := output.NewDebugLog(filepath.Join(repo.Root(), ".git"))
	splog.SetDebugWriter(debugLog)

	token, err := github.TokenFromEnv()
	if err != nil {
		return nil, err
	}

	remoteURL, err := repo.RemoteURL(cfg.GetRemote())
	if err != nil {
		return nil, err
	}
	owner, name, err := git.ParseOwnerRepo(remoteURL)
	if err != nil {
		return nil, err
	}

	forge, err := github.NewClient(ctx, token, github.HostnameFromRemoteURL(remoteURL), owner, name)
	if err != nil {
		return nil, err
	}

	return &Context{
		Repo:     repo,
		Engine:   engine.New(repo, forge, cfg, splog),
		Splog:    splog,
		Config:   cfg,
		Forge:    forge,
		RepoRoot: repo.Root(),
		debugLog: debugLog,
	}, nil
}
