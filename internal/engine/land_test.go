package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"stackpr.dev/stackpr/internal/github"
	"stackpr.dev/stackpr/internal/stack"
)

func landScene() (*stackState, *fakeGit, *fakeForge) {
	entries := []*stack.Entry{
		syncedEntry(0, "one", "11111111-a", 10),
		syncedEntry(1, "two", "22222222-b", 11),
		syncedEntry(2, "three", "33333333-c", 12),
	}
	state := &stackState{entries: entries}

	forge := newFakeForge()
	forge.remote[10] = syncedRemote(entries[0], entries, "main")
	forge.remote[11] = syncedRemote(entries[1], entries, "spr/11111111")
	forge.remote[12] = syncedRemote(entries[2], entries, "spr/22222222")

	fg := newFakeGit()
	// The rebase after each merge drops the landed commit from the stack.
	fg.rebaseHook = state.popBottom

	return state, fg, forge
}

func TestLandAllCascades(t *testing.T) {
	state, fg, forge := landScene()
	eng := newTestEngine(fg, forge, state)

	report, err := eng.Land(context.Background(), LandOptions{All: true})
	require.NoError(t, err)

	// Merged strictly bottom-up.
	require.Equal(t, []int{10, 11, 12}, forge.merged)
	require.Empty(t, report.Entries)
	require.Len(t, fg.rebased, 3)

	// After each merge the next PR was repointed at the target.
	require.Equal(t, "main", forge.remote[11].Base)
	require.Equal(t, "main", forge.remote[12].Base)
}

func TestLandSingleStopsAfterBottom(t *testing.T) {
	state, fg, forge := landScene()
	eng := newTestEngine(fg, forge, state)

	report, err := eng.Land(context.Background(), LandOptions{})
	require.NoError(t, err)

	require.Equal(t, []int{10}, forge.merged)
	require.Len(t, report.Entries, 2)
	require.Equal(t, LandPending, report.Entries[0].State)

	// The follow-up sync already moved the next PR onto the target.
	require.Equal(t, "main", forge.remote[11].Base)
	require.Equal(t, "spr/22222222", forge.remote[12].Base)
}

func TestLandWaitsForChecks(t *testing.T) {
	t.Run("pending checks", func(t *testing.T) {
		state, fg, forge := landScene()
		forge.checks[10] = &github.CheckStatus{Passing: true, Pending: true}
		eng := newTestEngine(fg, forge, state)

		report, err := eng.Land(context.Background(), LandOptions{All: true})
		require.NoError(t, err)

		require.Empty(t, forge.merged)
		require.Len(t, report.Entries, 3)
		require.Equal(t, LandPending, report.Entries[0].State)
		require.Contains(t, report.Entries[0].Reason, "still running")
	})

	t.Run("failing checks", func(t *testing.T) {
		state, fg, forge := landScene()
		forge.checks[10] = &github.CheckStatus{Passing: false}
		eng := newTestEngine(fg, forge, state)

		report, err := eng.Land(context.Background(), LandOptions{All: true})
		require.NoError(t, err)

		require.Empty(t, forge.merged)
		require.Contains(t, report.Entries[0].Reason, "failing")
	})
}

func TestLandMergeFailureStopsRun(t *testing.T) {
	state, fg, forge := landScene()
	forge.failMerge[11] = errors.New("base branch was modified")
	eng := newTestEngine(fg, forge, state)

	report, err := eng.Land(context.Background(), LandOptions{All: true})
	require.Error(t, err)

	// The first entry landed; the failure on the second stopped the run
	// without touching anything above it.
	require.Equal(t, []int{10}, forge.merged)
	require.Len(t, fg.rebased, 1)
	require.Len(t, report.Entries, 2)
	require.Equal(t, LandMergeFailed, report.Entries[0].State)
	require.Equal(t, LandPending, report.Entries[1].State)
}

func TestLandEmptyStack(t *testing.T) {
	state := &stackState{}
	eng := newTestEngine(newFakeGit(), newFakeForge(), state)

	report, err := eng.Land(context.Background(), LandOptions{All: true})
	require.NoError(t, err)
	require.Empty(t, report.Merged)
	require.Empty(t, report.Entries)
}
