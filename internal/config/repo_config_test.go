package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stackpr.dev/stackpr/internal/config"
	"stackpr.dev/stackpr/testhelpers"
)

func TestRepoConfigDefaults(t *testing.T) {
	cfg := &config.RepoConfig{}
	require.Equal(t, "main", cfg.GetTargetBranch())
	require.Equal(t, "origin", cfg.GetRemote())
	require.Empty(t, cfg.GetBranchPrefix())
	require.False(t, cfg.GetDraft())
}

func TestRepoConfigRoundTrip(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)

	cfg, err := config.Initialize(scene.Dir, "develop", "upstream", "me")
	require.NoError(t, err)
	require.Equal(t, "develop", cfg.GetTargetBranch())

	loaded, err := config.GetRepoConfig(scene.Dir)
	require.NoError(t, err)
	require.Equal(t, "develop", loaded.GetTargetBranch())
	require.Equal(t, "upstream", loaded.GetRemote())
	require.Equal(t, "me", loaded.GetBranchPrefix())
}

func TestIsInitialized(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)

	// The scene writes a default config with a target branch.
	require.True(t, config.IsInitialized(scene.Dir))

	require.False(t, config.IsInitialized(t.TempDir()))
}

func TestMissingConfigIsEmpty(t *testing.T) {
	cfg, err := config.GetRepoConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "main", cfg.GetTargetBranch())
}
