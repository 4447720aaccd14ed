// Package testhelpers provides temporary git repositories and scenes for
// tests that exercise real git behavior.
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Scene is a test scene with a temporary directory holding a git repository
// initialized for stackpr.
type Scene struct {
	Dir    string
	Repo   *GitRepo
	oldDir string
}

// SceneSetup is a function type for setting up a scene
type SceneSetup func(*Scene) error

// NewScene creates a test scene with a fresh repository and registers
// cleanup with the test
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "stackpr-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}

	repo, err := NewGitRepo(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create git repo: %v", err)
	}

	scene := &Scene{
		Dir:    tmpDir,
		Repo:   repo,
		oldDir: oldDir,
	}

	if err := os.Chdir(tmpDir); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to change directory: %v", err)
	}

	if err := scene.writeDefaultConfig(); err != nil {
		os.Chdir(oldDir)
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to write config: %v", err)
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			os.Chdir(oldDir)
			os.RemoveAll(tmpDir)
			t.Fatalf("Setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		os.Chdir(oldDir)
		if os.Getenv("DEBUG") == "" {
			os.RemoveAll(tmpDir)
		}
	})

	return scene
}

func (s *Scene) writeDefaultConfig() error {
	configPath := filepath.Join(s.Dir, ".git", ".stackpr_config")
	config := `{
  "targetBranch": "main",
  "remote": "origin"
}
`
	return os.WriteFile(configPath, []byte(config), 0600)
}

// BasicSceneSetup creates a scene with a single commit on main
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CommitChange("initial", "base")
}

// StackSceneSetup creates a scene with a base commit on main and a stack of
// three commits on a feature branch
func StackSceneSetup(scene *Scene) error {
	if err := scene.Repo.CommitChange("initial", "base"); err != nil {
		return err
	}
	if err := scene.Repo.CreateAndCheckoutBranch("feature"); err != nil {
		return err
	}
	for _, name := range []string{"one", "two", "three"} {
		if err := scene.Repo.CommitChange("add "+name, name); err != nil {
			return err
		}
	}
	return nil
}
