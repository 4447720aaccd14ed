// Package config provides repository configuration management,
// including reading and writing the stackpr configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultTargetBranch is assumed when no target branch is configured
	DefaultTargetBranch = "main"
	// DefaultRemote is assumed when no remote is configured
	DefaultRemote = "origin"
)

const configFileName = ".stackpr_config"

// RepoConfig represents the repository configuration
type RepoConfig struct {
	TargetBranch *string `json:"targetBranch,omitempty"`
	Remote       *string `json:"remote,omitempty"`
	BranchPrefix *string `json:"branchPrefix,omitempty"`
	Draft        *bool   `json:"draft,omitempty"`
}

func configPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", configFileName)
}

// GetRepoConfig reads the repository configuration; a missing file returns
// an empty config, so every accessor falls back to its default
func GetRepoConfig(repoRoot string) (*RepoConfig, error) {
	data, err := os.ReadFile(configPath(repoRoot))
	if err != nil {
		return &RepoConfig{}, nil
	}

	var config RepoConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}

	return &config, nil
}

// Save writes the configuration back to the repository
func (c *RepoConfig) Save(repoRoot string) error {
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath(repoRoot), configJSON, 0600)
}

// GetTargetBranch returns the configured target branch, or "main"
func (c *RepoConfig) GetTargetBranch() string {
	if c.TargetBranch != nil && *c.TargetBranch != "" {
		return *c.TargetBranch
	}
	return DefaultTargetBranch
}

// GetRemote returns the configured remote name, or "origin"
func (c *RepoConfig) GetRemote() string {
	if c.Remote != nil && *c.Remote != "" {
		return *c.Remote
	}
	return DefaultRemote
}

// GetBranchPrefix returns the configured head branch prefix, or empty to
// use the built-in default
func (c *RepoConfig) GetBranchPrefix() string {
	if c.BranchPrefix != nil {
		return *c.BranchPrefix
	}
	return ""
}

// GetDraft returns whether new PRs are created as drafts
func (c *RepoConfig) GetDraft() bool {
	return c.Draft != nil && *c.Draft
}

// IsInitialized checks whether stackpr has been initialized in the repo
func IsInitialized(repoRoot string) bool {
	if _, err := os.Stat(configPath(repoRoot)); err != nil {
		return false
	}
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return false
	}
	return config.TargetBranch != nil && *config.TargetBranch != ""
}

// Initialize writes a fresh configuration for the repo
func Initialize(repoRoot, targetBranch, remote, branchPrefix string) (*RepoConfig, error) {
	config := &RepoConfig{}
	if targetBranch != "" {
		config.TargetBranch = &targetBranch
	}
	if remote != "" {
		config.Remote = &remote
	}
	if branchPrefix != "" {
		config.BranchPrefix = &branchPrefix
	}

	if err := config.Save(repoRoot); err != nil {
		return nil, err
	}
	return config, nil
}
