package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"stackpr.dev/stackpr/internal/config"
	"stackpr.dev/stackpr/internal/output"
	"stackpr.dev/stackpr/internal/stack"
)

// stackState lets tests mutate the entries the engine sees between pipeline
// iterations, the way real git state changes under a land cascade
type stackState struct {
	entries []*stack.Entry
}

func (s *stackState) popBottom() {
	s.entries = s.entries[1:]
	for i, e := range s.entries {
		e.Index = i
	}
}

func newTestEngine(fg *fakeGit, forge *fakeForge, state *stackState) *Engine {
	e := &Engine{
		gitOps: fg,
		forge:  forge,
		cfg:    &config.RepoConfig{},
		log:    output.NewSplogWriter(io.Discard),
	}
	e.acquireLock = func(context.Context) (func(), error) { return func() {}, nil }
	e.loadEntries = func(context.Context) ([]*stack.Entry, string, error) {
		return state.entries, "feature", nil
	}
	return e
}

// untrackedEntry builds a commit that has never been synced
func untrackedEntry(index int, title string) *stack.Entry {
	return &stack.Entry{
		Index:       index,
		SHA:         fmt.Sprintf("sha-%d", index),
		Message:     title + "\n",
		ContentHash: fmt.Sprintf("hash-%d", index),
		Change:      stack.ChangeNew,
	}
}

// syncedEntry builds a commit whose trailer matches its content hash
func syncedEntry(index int, title, id string, pr int) *stack.Entry {
	meta := &stack.Metadata{CommitID: id, PRNumber: pr, SyncHash: fmt.Sprintf("aa%d", index)}
	return &stack.Entry{
		Index:       index,
		SHA:         fmt.Sprintf("sha-%d", index),
		Message:     stack.FormatMessage(title+"\n", meta),
		Meta:        meta,
		ContentHash: meta.SyncHash,
		Change:      stack.ChangeUnchanged,
	}
}

func TestSyncCreatesNewStack(t *testing.T) {
	state := &stackState{entries: []*stack.Entry{
		untrackedEntry(0, "add one"),
		untrackedEntry(1, "add two"),
	}}
	fg := newFakeGit()
	forge := newFakeForge()
	eng := newTestEngine(fg, forge, state)

	report, err := eng.Sync(context.Background())
	require.NoError(t, err)
	require.False(t, report.Failed())

	// IDs were minted and the created PR numbers recorded.
	require.NotNil(t, state.entries[0].Meta)
	require.NotEmpty(t, state.entries[0].Meta.CommitID)
	require.Equal(t, 101, state.entries[0].Meta.PRNumber)
	require.Equal(t, 102, state.entries[1].Meta.PRNumber)

	// Sync hashes snapshot the pre-amend content hash.
	require.Equal(t, "hash-0", state.entries[0].Meta.SyncHash)
	require.Equal(t, "hash-1", state.entries[1].Meta.SyncHash)

	require.Len(t, forge.created, 2)
	require.Equal(t, "main", forge.created[0].Base)
	require.Equal(t,
		stack.HeadBranchName("", state.entries[0].Meta.CommitID),
		forge.created[1].Base)

	// One chain rewrite persists the metadata.
	require.Equal(t, 1, fg.rewrites)

	require.Equal(t, "created #101", report.Entries[0].Outcome)
	require.Equal(t, "created #102", report.Entries[1].Outcome)
}

func TestSyncIsIdempotent(t *testing.T) {
	entries := []*stack.Entry{
		syncedEntry(0, "one", "11111111-a", 10),
		syncedEntry(1, "two", "22222222-b", 11),
	}
	state := &stackState{entries: entries}
	fg := newFakeGit()
	forge := newFakeForge()
	forge.remote[10] = syncedRemote(entries[0], entries, "main")
	forge.remote[11] = syncedRemote(entries[1], entries, "spr/11111111")
	eng := newTestEngine(fg, forge, state)

	report, err := eng.Sync(context.Background())
	require.NoError(t, err)
	require.False(t, report.Failed())
	require.True(t, report.Plan.IsNoop())

	require.Empty(t, fg.pushed)
	require.Empty(t, forge.created)
	require.Empty(t, forge.updated)
	require.Zero(t, fg.rewrites)
	require.Equal(t, "unchanged", report.Entries[0].Outcome)
	require.Equal(t, "unchanged", report.Entries[1].Outcome)
}

func TestSyncFailureKeepsSyncHashUnset(t *testing.T) {
	modified := syncedEntry(0, "one", "11111111-a", 10)
	modified.ContentHash = "changed"
	modified.Change = stack.ChangeModified
	entries := []*stack.Entry{modified}
	state := &stackState{entries: entries}

	fg := newFakeGit()
	fg.failPush["spr/11111111"] = errors.New("push refused")
	forge := newFakeForge()
	forge.remote[10] = syncedRemote(entries[0], entries, "main")
	eng := newTestEngine(fg, forge, state)

	report, err := eng.Sync(context.Background())
	require.NoError(t, err)
	require.True(t, report.Failed())

	// The failed entry's recorded hash still points at the last completed
	// sync, so the next run retries the push.
	require.Equal(t, "aa0", modified.Meta.SyncHash)
	require.Equal(t, "update-branch failed", report.Entries[0].Outcome)
	require.Error(t, report.Entries[0].Err)
}

func TestSyncEmptyStack(t *testing.T) {
	state := &stackState{}
	eng := newTestEngine(newFakeGit(), newFakeForge(), state)

	report, err := eng.Sync(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Entries)
}
