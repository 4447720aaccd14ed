package stack_test

import (
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	stackprerrors "stackpr.dev/stackpr/internal/errors"
	"stackpr.dev/stackpr/internal/stack"
	"stackpr.dev/stackpr/testhelpers"
)

func TestWalk(t *testing.T) {
	t.Run("linear stack is ordered bottom first", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.StackSceneSetup)

		repo, err := gogit.PlainOpen(scene.Dir)
		require.NoError(t, err)

		entries, err := stack.WalkRefs(repo, "refs/heads/main", "refs/heads/feature")
		require.NoError(t, err)
		require.Len(t, entries, 3)

		require.Equal(t, "add one", entries[0].Title())
		require.Equal(t, "add two", entries[1].Title())
		require.Equal(t, "add three", entries[2].Title())
		for i, e := range entries {
			require.Equal(t, i, e.Index)
			require.Equal(t, stack.ChangeNew, e.Change)
			require.NotEmpty(t, e.ContentHash)
			require.Equal(t, entries[i].ParentSHA, parentOf(entries, i, "refs/heads/main", scene, t))
		}
	})

	t.Run("empty range is a valid empty stack", func(t *testing.T) {
		scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

		repo, err := gogit.PlainOpen(scene.Dir)
		require.NoError(t, err)

		entries, err := stack.WalkRefs(repo, "refs/heads/main", "refs/heads/main")
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("merge commit fails with not linear history", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if err := s.Repo.CreateAndCheckoutBranch("side"); err != nil {
				return err
			}
			if err := s.Repo.CommitChange("side change", "side"); err != nil {
				return err
			}
			if err := s.Repo.CheckoutBranch("main"); err != nil {
				return err
			}
			if err := s.Repo.CommitChange("main change", "mainline"); err != nil {
				return err
			}
			if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
				return err
			}
			return s.Repo.MergeBranch("side")
		})

		repo, err := gogit.PlainOpen(scene.Dir)
		require.NoError(t, err)

		_, err = stack.WalkRefs(repo, "refs/heads/main", "refs/heads/feature")
		require.ErrorIs(t, err, stackprerrors.ErrNotLinearHistory)
	})

	t.Run("tip not descending from base fails", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
				return err
			}
			if err := s.Repo.CommitChange("feature change", "feat"); err != nil {
				return err
			}
			// main moves ahead so feature no longer descends from it
			if err := s.Repo.CheckoutBranch("main"); err != nil {
				return err
			}
			return s.Repo.CommitChange("main moved", "moved")
		})

		repo, err := gogit.PlainOpen(scene.Dir)
		require.NoError(t, err)

		_, err = stack.WalkRefs(repo, "refs/heads/main", "refs/heads/feature")
		require.ErrorIs(t, err, stackprerrors.ErrNotLinearHistory)
	})

	t.Run("tracked commits carry parsed metadata", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
				return err
			}
			return s.Repo.CommitWithMessage("tracked", "tracked change\n\nstackpr-id: abc-123\nstackpr-pr: 5\n")
		})

		repo, err := gogit.PlainOpen(scene.Dir)
		require.NoError(t, err)

		entries, err := stack.WalkRefs(repo, "refs/heads/main", "refs/heads/feature")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.True(t, entries[0].Tracked())
		require.Equal(t, "abc-123", entries[0].Meta.CommitID)
		require.Equal(t, 5, entries[0].PRNumber())
		require.Equal(t, stack.ChangeModified, entries[0].Change)
	})

	t.Run("corrupt metadata names the commit", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
				return err
			}
			return s.Repo.CommitWithMessage("corrupt", "bad change\n\nstackpr-id: a\nstackpr-id: b\n")
		})

		repo, err := gogit.PlainOpen(scene.Dir)
		require.NoError(t, err)

		_, err = stack.WalkRefs(repo, "refs/heads/main", "refs/heads/feature")
		require.ErrorIs(t, err, stackprerrors.ErrMetadataCorrupt)

		sha, shaErr := scene.Repo.GetRevision("refs/heads/feature")
		require.NoError(t, shaErr)
		require.Contains(t, err.Error(), sha)
	})
}

func parentOf(entries []*stack.Entry, i int, baseRef string, scene *testhelpers.Scene, t *testing.T) string {
	t.Helper()
	if i == 0 {
		sha, err := scene.Repo.GetRevision(baseRef)
		require.NoError(t, err)
		return sha
	}
	return entries[i-1].SHA
}
